package query

import "todo-service/internal/application/common"

type TaskQueryResult struct {
	Result *common.TaskResult `json:"result"`
}

type TaskQueryListResult struct {
	Result []*common.TaskResult `json:"result"`
}

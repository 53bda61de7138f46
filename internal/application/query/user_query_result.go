package query

import "todo-service/internal/application/common"

type UserQueryResult struct {
	Result *common.UserResult `json:"result"`
}

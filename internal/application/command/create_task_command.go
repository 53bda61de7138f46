package command

import "todo-service/internal/application/common"

type CreateTaskCommand struct {
	OwnerEmail     string `json:"-"`
	Name           string `json:"name"`
	Priority       string `json:"priority"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type CreateTaskCommandResult struct {
	Result *common.TaskResult `json:"result"`
}

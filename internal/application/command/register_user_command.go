package command

import "todo-service/internal/application/common"

// RegisterUserCommand carries a local registration. Password is a pointer so
// a missing field can be told apart from an empty one.
type RegisterUserCommand struct {
	Email    string  `json:"email"`
	Password *string `json:"password,omitempty"`
}

type RegisterUserCommandResult struct {
	Created bool               `json:"created"`
	Result  *common.UserResult `json:"result"`
}

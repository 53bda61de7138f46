package command

import (
	"time"

	"todo-service/internal/application/common"
)

type LoginUserCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUserCommandResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      *common.UserResult `json:"user"`
}

type LogoutUserCommandResult struct {
	LogoutURL string `json:"logout_url,omitempty"`
}

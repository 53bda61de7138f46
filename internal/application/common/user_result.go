package common

import "time"

type UserResult struct {
	Id          string    `json:"id"`
	Email       string    `json:"email"`
	HasPassword bool      `json:"has_password"`
	TaskIds     []string  `json:"task_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

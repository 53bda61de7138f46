package common

import "time"

type TaskResult struct {
	Id         string    `json:"id"`
	Name       string    `json:"name"`
	Priority   string    `json:"priority"`
	OwnerEmail string    `json:"owner_email"`
	OwnerId    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

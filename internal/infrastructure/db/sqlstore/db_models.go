package sqlstore

import (
	"time"

	"github.com/google/uuid"
)

type IdempotencyRecord struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key        string    `gorm:"uniqueIndex;not null"`
	Request    string
	Response   string
	StatusCode int
	CreatedAt  time.Time
}

func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}

package repositories

import (
	"context"

	"todo-service/internal/domain/entities"
)

type IdempotencyRepository interface {
	// FindByKey returns (nil, nil) when no record exists for key.
	FindByKey(ctx context.Context, key string) (*entities.IdempotencyRecord, error)
	Create(ctx context.Context, record *entities.IdempotencyRecord) (*entities.IdempotencyRecord, error)
}

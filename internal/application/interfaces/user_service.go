package interfaces

import (
	"context"

	"todo-service/internal/domain/entities"
)

type UserService interface {
	// Register is a no-op returning false when the email is already taken.
	Register(ctx context.Context, email string, password *string) (bool, error)
	VerifyCredentials(ctx context.Context, email, password string) (bool, error)
	ResolveOrProvision(ctx context.Context, email string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
}

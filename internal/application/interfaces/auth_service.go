package interfaces

import (
	"context"

	"todo-service/internal/application/command"
)

type AuthService interface {
	Login(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error)
	BeginFederatedLogin(ctx context.Context) (string, error)
	CompleteFederatedLogin(ctx context.Context, state, code string) (*command.LoginUserCommandResult, error)
	// Authenticate resolves a session token to the caller's email.
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) (*command.LogoutUserCommandResult, error)
}

// IdentityProvider is the federated login collaborator: it builds the
// redirect to the provider and turns the callback code into a verified email.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	ResolveIdentity(ctx context.Context, code string) (string, error)
	LogoutURL(returnTo string) string
}

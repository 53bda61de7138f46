package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"todo-service/internal/application/command"
	"todo-service/internal/application/interfaces"
	"todo-service/internal/application/mapper"
	"todo-service/internal/infrastructure"
)

const defaultStateTTL = 10 * time.Minute

type AuthOptions struct {
	SessionTTL time.Duration
	StateTTL   time.Duration
	// LogoutReturnURL is passed to the identity provider's logout endpoint.
	LogoutReturnURL string
}

// AuthService establishes sessions for local and federated logins. A session
// is a signed token that must also be registered in Redis, so logout takes
// effect before the token expires.
type AuthService struct {
	users    interfaces.UserService
	jwt      *infrastructure.JWTService
	redis    *infrastructure.RedisService
	provider interfaces.IdentityProvider
	limiter  *infrastructure.RateLimiter
	opts     AuthOptions
}

// NewAuthService wires the session boundary. provider may be nil, which
// disables federated login.
func NewAuthService(
	users interfaces.UserService,
	jwtService *infrastructure.JWTService,
	redisService *infrastructure.RedisService,
	provider interfaces.IdentityProvider,
	limiter *infrastructure.RateLimiter,
	opts AuthOptions,
) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = defaultStateTTL
	}
	return &AuthService{
		users:    users,
		jwt:      jwtService,
		redis:    redisService,
		provider: provider,
		limiter:  limiter,
		opts:     opts,
	}
}

func (s *AuthService) Login(ctx context.Context, loginCommand *command.LoginUserCommand) (*command.LoginUserCommandResult, error) {
	key := strings.ToLower(strings.TrimSpace(loginCommand.Email))
	if s.limiter != nil && !s.limiter.Allow(key) {
		log.Printf("login rate limit hit for %s", loginCommand.Email)
		return nil, ErrTooManyAttempts
	}

	ok, err := s.users.VerifyCredentials(ctx, loginCommand.Email, loginCommand.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if s.limiter != nil {
		s.limiter.Reset(key)
	}

	return s.startSession(ctx, loginCommand.Email)
}

// BeginFederatedLogin records a fresh state value and returns the provider
// URL to redirect the browser to.
func (s *AuthService) BeginFederatedLogin(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", ErrFederatedLoginDisabled
	}
	state := uuid.NewString()
	if err := s.redis.SetOAuthState(ctx, state, s.opts.StateTTL); err != nil {
		return "", fmt.Errorf("store login state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

func (s *AuthService) CompleteFederatedLogin(ctx context.Context, state, code string) (*command.LoginUserCommandResult, error) {
	if s.provider == nil {
		return nil, ErrFederatedLoginDisabled
	}
	if state == "" {
		return nil, ErrInvalidState
	}
	pending, err := s.redis.ConsumeOAuthState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("consume login state: %w", err)
	}
	if !pending {
		return nil, ErrInvalidState
	}

	email, err := s.provider.ResolveIdentity(ctx, code)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.ResolveOrProvision(ctx, email); err != nil {
		return nil, err
	}
	log.Printf("federated login for %s", email)
	return s.startSession(ctx, email)
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	email, err := s.jwt.ParseToken(token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	registered, err := s.redis.GetToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("look up session: %w", err)
	}
	if registered == "" || registered != email {
		return "", ErrUnauthenticated
	}
	return email, nil
}

// Logout revokes the session. Revoking an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) (*command.LogoutUserCommandResult, error) {
	if token != "" {
		if err := s.redis.DeleteToken(ctx, token); err != nil {
			return nil, fmt.Errorf("revoke session: %w", err)
		}
	}
	result := &command.LogoutUserCommandResult{}
	if s.provider != nil {
		result.LogoutURL = s.provider.LogoutURL(s.opts.LogoutReturnURL)
	}
	return result, nil
}

func (s *AuthService) startSession(ctx context.Context, email string) (*command.LoginUserCommandResult, error) {
	token, err := s.jwt.GenerateToken(email, s.opts.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.redis.SetToken(ctx, token, email, s.opts.SessionTTL); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	result := &command.LoginUserCommandResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.opts.SessionTTL).UTC(),
	}
	if user != nil {
		result.User = mapper.NewUserResultFromEntity(user)
	}
	return result, nil
}

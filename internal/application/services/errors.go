package services

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUnauthenticated        = errors.New("authentication required")
	ErrTooManyAttempts        = errors.New("too many login attempts, try again later")
	ErrInvalidState           = errors.New("invalid or expired login state")
	ErrFederatedLoginDisabled = errors.New("federated login is not configured")
)

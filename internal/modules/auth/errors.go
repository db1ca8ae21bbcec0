package auth

import "conveycrm/internal/pkg/apperr"

var (
	ErrMissingCredentials = apperr.Validation("Email and password are required")
	ErrInvalidCredentials = apperr.Auth("Invalid credentials")
	ErrInvalidToken       = apperr.Auth("Invalid token")
)

package auth

import (
	"time"

	"conveycrm/internal/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the user with the issued token alongside.
type LoginResponse struct {
	domain.User
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type LogoutRequest struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
}

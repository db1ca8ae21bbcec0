package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/metrics"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service contains the business logic for sessions.
type Service struct {
	users    UserRepository
	revoker  TokenRevoker
	tokens   TokenIssuer
	tokenTTL time.Duration
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(users UserRepository, revoker TokenRevoker, tokens TokenIssuer, tokenTTL time.Duration, clk clock.Clock, log *zap.Logger) *Service {
	return &Service{
		users:    users,
		revoker:  revoker,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		clock:    clk,
		log:      log,
	}
}

// Login checks the password with bcrypt and issues a token. Unknown email,
// wrong password and inactive accounts all answer the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthAttempt(false)
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.RecordAuthAttempt(false)
		return nil, ErrInvalidCredentials
	}
	if user.Status != domain.UserActive {
		metrics.RecordAuthAttempt(false)
		s.log.Info("login refused for inactive user", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		// The token is valid either way; a missed timestamp is not worth failing the login.
		s.log.Warn("failed to stamp last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	metrics.RecordAuthAttempt(true)
	return &LoginResponse{User: *user, Token: token, ExpiresAt: now.Add(s.tokenTTL)}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, req LogoutRequest) error {
	if req.TokenID == "" {
		return ErrInvalidToken
	}
	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.clock.Now().Add(s.tokenTTL)
	}
	if err := s.revoker.Revoke(ctx, req.TokenID, req.UserID, expiresAt, s.clock.Now()); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Verify resolves the user behind an already validated token.
func (s *Service) Verify(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Internal(err)
	}
	if user.Status != domain.UserActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

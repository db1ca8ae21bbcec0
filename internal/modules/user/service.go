package user

import (
	"context"
	"errors"
	"strings"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type Service struct {
	users    UserRepository
	tx       TxManager
	recorder ActivityRecorder
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(users UserRepository, tx TxManager, recorder ActivityRecorder, clk clock.Clock, log *zap.Logger) *Service {
	return &Service{users: users, tx: tx, recorder: recorder, clock: clk, log: log}
}

func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	users, err := s.users.List(ctx, repository.UserFilter{Search: p.Search, Role: p.Role, Status: p.Status})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	page, meta := pagination.Slice(users, p.Page)
	return &ListResult{Users: page, Pagination: meta}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateRequest) (*domain.User, error) {
	role := domain.UserRole(req.Role)
	if !role.Valid() {
		return nil, ErrUnknownRole
	}
	status := domain.UserActive
	if req.Status != "" {
		status = domain.UserStatus(req.Status)
		if !validStatus(status) {
			return nil, ErrUnknownStatus
		}
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		taken, err := s.users.ExistsByEmail(ctx, u.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}
		return s.recorder.Record(ctx, actor.UserID, activity.ActionUserCreated, domain.TargetUser, u.ID,
			map[string]any{"email": u.Email, "role": string(u.Role)})
	})
	if err != nil {
		return nil, wrap(err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateRequest) (*domain.User, error) {
	var updated *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		changes := map[string]any{}
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
			changes["name"] = u.Name
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email != u.Email {
				taken, err := s.users.ExistsByEmail(ctx, email)
				if err != nil {
					return err
				}
				if taken {
					return ErrEmailTaken
				}
				u.Email = email
				changes["email"] = email
			}
		}
		wasActiveAdmin := activeAdmin(u)
		if req.Status != nil {
			st := domain.UserStatus(*req.Status)
			if !validStatus(st) {
				return ErrUnknownStatus
			}
			u.Status = st
			changes["status"] = string(st)
		}
		if req.Role != nil {
			role := domain.UserRole(*req.Role)
			if !role.Valid() {
				return ErrUnknownRole
			}
			u.Role = role
			changes["role"] = string(role)
		}
		if wasActiveAdmin && !activeAdmin(u) {
			err := s.ensureAnotherAdmin(ctx)
			switch {
			case errors.Is(err, ErrLastAdmin) && u.Role != domain.RoleAdmin:
				return ErrLastAdminDemoted
			case errors.Is(err, ErrLastAdmin):
				return ErrLastAdminDeactivated
			case err != nil:
				return err
			}
		}

		u.UpdatedAt = s.clock.Now()
		if err := s.users.Update(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}
		updated = u
		return s.recorder.Record(ctx, actor.UserID, activity.ActionUserUpdated, domain.TargetUser, id, changes)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return updated, nil
}

// Delete removes a user. The last active Admin can never be removed.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if activeAdmin(u) {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return err
			}
		}
		if err := s.users.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return s.recorder.Record(ctx, actor.UserID, activity.ActionUserDeleted, domain.TargetUser, id,
			map[string]any{"email": u.Email})
	})
	return wrap(err)
}

func (s *Service) ChangePassword(ctx context.Context, actor domain.Actor, id string, req ChangePasswordRequest) error {
	if req.NewPassword == "" {
		return ErrPasswordRequired
	}
	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.UpdatedAt = s.clock.Now()
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		return s.recorder.Record(ctx, actor.UserID, activity.ActionPasswordChanged, domain.TargetUser, id, nil)
	})
	return wrap(err)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	st := &Stats{
		TotalUsers: len(users),
		UsersByRole: map[domain.UserRole]int{
			domain.RoleAdmin:   0,
			domain.RoleManager: 0,
			domain.RoleAgent:   0,
		},
	}
	for _, u := range users {
		if u.Status == domain.UserActive {
			st.ActiveUsers++
		} else {
			st.InactiveUsers++
		}
		st.UsersByRole[u.Role]++
	}
	return st, nil
}

// HashPassword enforces the minimum length and returns a bcrypt hash.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(hash), nil
}

// ensureAnotherAdmin fails unless some other active Admin remains to run the system.
func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.users.CountActiveByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func activeAdmin(u *domain.User) bool {
	return u.Role == domain.RoleAdmin && u.Status == domain.UserActive
}

func validStatus(st domain.UserStatus) bool {
	return st == domain.UserActive || st == domain.UserInactive
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}

package attempt

import (
	"context"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/repository"
)

type AttemptRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ContactAttempt, error)
	List(ctx context.Context, q repository.AttemptQuery) ([]domain.ContactAttempt, error)
	Transition(ctx context.Context, a *domain.ContactAttempt, from domain.AttemptStatus) error
}

type LeadRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	IncrementAttempts(ctx context.Context, id string, now time.Time) (*domain.Lead, error)
}

type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID, action string, target domain.TargetType, targetID string, details map[string]any) error
}

type EventPublisher interface {
	Publish(eventType string, data any)
}

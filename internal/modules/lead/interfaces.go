package lead

import (
	"context"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/repository"
)

type LeadRepository interface {
	Create(ctx context.Context, l *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, q repository.LeadQuery) ([]domain.Lead, error)
	Update(ctx context.Context, l *domain.Lead) error
	IncrementAttempts(ctx context.Context, id string, now time.Time) (*domain.Lead, error)
	CountOpenByAssignee(ctx context.Context, agent string) (int, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, a *domain.ContactAttempt) error
	List(ctx context.Context, q repository.AttemptQuery) ([]domain.ContactAttempt, error)
	CancelScheduled(ctx context.Context, leadID string) (int64, error)
}

type QuotaRepository interface {
	Get(ctx context.Context, agent string) (*domain.AgentQuota, error)
	CreateIfMissing(ctx context.Context, q *domain.AgentQuota) error
	Save(ctx context.Context, q *domain.AgentQuota) error
}

type OutcomeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.OutcomeCode, error)
}

type ActivityReader interface {
	ListByTarget(ctx context.Context, targetType domain.TargetType, targetID string) ([]domain.ActivityLog, error)
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

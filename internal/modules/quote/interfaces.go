package quote

import (
	"context"

	"conveycrm/internal/domain"
	"conveycrm/internal/mailer"
	"conveycrm/internal/repository"
)

type QuoteRepository interface {
	CreateVersion(ctx context.Context, q *domain.Quote) error
	GetCurrent(ctx context.Context, quoteID string) (*domain.Quote, error)
	GetVersion(ctx context.Context, quoteID string, version int) (*domain.Quote, error)
	ListVersions(ctx context.Context, quoteID string) ([]domain.Quote, error)
	ListCurrent(ctx context.Context, q repository.QuoteQuery) ([]domain.Quote, error)
	UpdateCurrent(ctx context.Context, q *domain.Quote, expected domain.QuoteStatus) error
	Retire(ctx context.Context, rowID string, expected domain.QuoteStatus) error
}

type LeadRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	Update(ctx context.Context, l *domain.Lead) error
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

// Renderer turns a quote version into a printable document.
type Renderer interface {
	Render(q domain.Quote) ([]byte, error)
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

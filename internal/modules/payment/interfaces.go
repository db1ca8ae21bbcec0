package payment

import (
	"context"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/mailer"
	"conveycrm/internal/repository"
)

type invoiceRepo interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context, q repository.InvoiceQuery) ([]domain.Invoice, error)
	Update(ctx context.Context, inv *domain.Invoice, expected domain.InvoiceStatus) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type leadReader interface {
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
}

type quoteReader interface {
	GetCurrent(ctx context.Context, quoteID string) (*domain.Quote, error)
}

type txManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type activityRecorder interface {
	Record(ctx context.Context, userID, action string, target domain.TargetType, targetID string, details map[string]any) error
}

type eventPublisher interface {
	Publish(eventType string, data any)
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

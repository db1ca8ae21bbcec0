package report

import (
	"context"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/repository"
)

type LeadLister interface {
	List(ctx context.Context, q repository.LeadQuery) ([]domain.Lead, error)
}

type InvoiceLister interface {
	List(ctx context.Context, q repository.InvoiceQuery) ([]domain.Invoice, error)
}

type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]domain.ActivityLog, error)
	ListByAction(ctx context.Context, action string, from, to *time.Time) ([]domain.ActivityLog, error)
}

type UserLister interface {
	List(ctx context.Context, f repository.UserFilter) ([]domain.User, error)
}

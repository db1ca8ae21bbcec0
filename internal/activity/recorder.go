package activity

import (
	"context"

	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/clock"

	"github.com/google/uuid"
)

const (
	ActionLeadCreated      = "lead.created"
	ActionLeadUpdated      = "lead.updated"
	ActionLeadAssigned     = "lead.assigned"
	ActionOutcomeLogged    = "lead.outcome"
	ActionLeadArchived     = "lead.archived"
	ActionAttemptLogged    = "attempt.logged"
	ActionAttemptScheduled = "attempt.scheduled"
	ActionAttemptStatus    = "attempt.status"
	ActionQuoteCreated     = "quote.created"
	ActionQuoteEdited      = "quote.edited"
	ActionQuoteVersioned   = "quote.versioned"
	ActionQuoteStatus      = "quote.status"
	ActionInvoiceCreated   = "invoice.created"
	ActionInvoiceUpdated   = "invoice.updated"
	ActionInvoiceStatus    = "invoice.status"
	ActionInvoiceSent      = "invoice.sent"
	ActionUserCreated      = "user.created"
	ActionUserUpdated      = "user.updated"
	ActionUserDeleted      = "user.deleted"
	ActionPasswordChanged  = "user.password_changed"
	ActionOutcomeSaved     = "outcome.saved"
	ActionQuotaUpdated     = "quota.updated"
)

type Store interface {
	Create(ctx context.Context, a *domain.ActivityLog) error
}

// Recorder appends audit entries stamped with the shared clock.
type Recorder struct {
	store Store
	clock clock.Clock
}

func NewRecorder(store Store, clk clock.Clock) *Recorder {
	return &Recorder{store: store, clock: clk}
}

// Record writes one entry. Inside a transaction context it joins the transaction.
func (r *Recorder) Record(ctx context.Context, userID, action string, target domain.TargetType, targetID string, details map[string]any) error {
	return r.store.Create(ctx, &domain.ActivityLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		TargetType: target,
		TargetID:   targetID,
		Timestamp:  r.clock.Now(),
		Details:    details,
	})
}

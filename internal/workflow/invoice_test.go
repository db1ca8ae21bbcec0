package workflow

import (
	"testing"
	"time"

	"conveycrm/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionInvoice(t *testing.T) {
	assert.NoError(t, CanTransitionInvoice(domain.InvoiceDraft, domain.InvoiceSent))
	assert.NoError(t, CanTransitionInvoice(domain.InvoiceSent, domain.InvoicePaid))
	assert.NoError(t, CanTransitionInvoice(domain.InvoiceOverdue, domain.InvoiceCancelled))
	assert.ErrorIs(t, CanTransitionInvoice(domain.InvoicePaid, domain.InvoiceSent), ErrInvalidStatusTransition)
	assert.ErrorIs(t, CanTransitionInvoice(domain.InvoiceDraft, domain.InvoicePaid), ErrInvalidStatusTransition)
}

func TestEffectiveInvoiceStatus(t *testing.T) {
	inv := domain.Invoice{Status: domain.InvoiceSent, DueDate: t0}

	assert.Equal(t, domain.InvoiceSent, EffectiveInvoiceStatus(inv, t0))
	assert.Equal(t, domain.InvoiceOverdue, EffectiveInvoiceStatus(inv, t0.Add(time.Second)))

	inv.Status = domain.InvoicePaid
	assert.Equal(t, domain.InvoicePaid, EffectiveInvoiceStatus(inv, t0.Add(time.Hour)))
}

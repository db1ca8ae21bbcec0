package workflow

import (
	"fmt"
	"time"

	"conveycrm/internal/domain"
)

// DefaultPaymentTerm is the due date offset for new invoices.
const DefaultPaymentTerm = 30 * 24 * time.Hour

var invoiceTransitions = map[domain.InvoiceStatus]map[domain.InvoiceStatus]bool{
	domain.InvoiceDraft: {
		domain.InvoiceSent:      true,
		domain.InvoiceCancelled: true,
	},
	domain.InvoiceSent: {
		domain.InvoicePaid:      true,
		domain.InvoiceOverdue:   true,
		domain.InvoiceCancelled: true,
	},
	domain.InvoiceOverdue: {
		domain.InvoicePaid:      true,
		domain.InvoiceCancelled: true,
	},
	domain.InvoicePaid:      {},
	domain.InvoiceCancelled: {},
}

func CanTransitionInvoice(from, to domain.InvoiceStatus) error {
	if invoiceTransitions[from][to] {
		return nil
	}
	return detailed(ErrInvalidStatusTransition,
		fmt.Sprintf("Invalid status transition: %s -> %s", from, to))
}

func ValidInvoiceStatus(s domain.InvoiceStatus) bool {
	_, ok := invoiceTransitions[s]
	return ok
}

// EffectiveInvoiceStatus derives Overdue for a sent invoice past its due date.
func EffectiveInvoiceStatus(inv domain.Invoice, now time.Time) domain.InvoiceStatus {
	if inv.Status == domain.InvoiceSent && now.After(inv.DueDate) {
		return domain.InvoiceOverdue
	}
	return inv.Status
}

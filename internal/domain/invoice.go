package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

type Invoice struct {
	ID              string          `json:"id"`
	LeadID          string          `json:"leadId"`
	LeadName        string          `json:"leadName"`
	LeadEmail       string          `json:"leadEmail"`
	QuoteID         string          `json:"quoteId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Status          InvoiceStatus   `json:"status"`
	IssuedAt        time.Time       `json:"issuedAt"`
	DueDate         time.Time       `json:"dueDate"`
	SentAt          *time.Time      `json:"sentAt,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	PaymentLink     string          `json:"paymentLink,omitempty"`
	StripePaymentID string          `json:"stripePaymentId,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

package payment

import (
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

// CreateRequest raises an invoice for a lead. Amount defaults to the quote
// total when a quote is given; DueDate defaults to 30 days after issue.
type CreateRequest struct {
	LeadID  string           `json:"leadId" validate:"required" example:"6f1c2b9e-3c1a-4b55-9d0e-0a6a3f1d2c11"`
	QuoteID string           `json:"quoteId" example:"Q-1A2B3C4D"`
	Amount  *decimal.Decimal `json:"amount" example:"960.00"`
	DueDate string           `json:"dueDate" example:"2024-04-03"`
}

// UpdateRequest is only honoured while the invoice is a Draft.
type UpdateRequest struct {
	Amount  *decimal.Decimal `json:"amount"`
	DueDate *string          `json:"dueDate"`
}

type StatusRequest struct {
	Status          string `json:"status" validate:"required" example:"Paid"`
	StripePaymentID string `json:"stripePaymentId" example:"pi_3OqX"`
}

type SendRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

type SendResponse struct {
	PaymentLink string          `json:"paymentLink" example:"https://checkout.stripe.com/pay/cs_test_INV-1A2B3C4D"`
	Message     string          `json:"message" example:"Payment link sent to jane@example.com"`
	Invoice     *domain.Invoice `json:"invoice"`
}

type ListParams struct {
	LeadID string
	Status domain.InvoiceStatus
	Page   pagination.Params
}

type ListResult struct {
	Payments   []domain.Invoice `json:"payments"`
	Pagination pagination.Meta  `json:"pagination"`
}

type Stats struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	OverdueAmount decimal.Decimal `json:"overdueAmount"`
	PaidThisMonth decimal.Decimal `json:"paidThisMonth"`
	TotalPayments int             `json:"totalPayments"`
}

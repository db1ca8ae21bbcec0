package payment

import "conveycrm/internal/pkg/apperr"

var (
	ErrInvoiceNotFound = apperr.NotFound("Payment not found")
	ErrLeadNotFound    = apperr.NotFound("Lead not found")
	ErrQuoteNotFound   = apperr.NotFound("Quote not found")
	ErrQuoteOtherLead  = apperr.Validation("Quote belongs to another lead")
	ErrAmountRequired  = apperr.Validation("amount must be greater than 0")
	ErrNotDraft        = apperr.Conflict("Only draft payments can be edited")
	ErrUnknownStatus   = apperr.Validation("Unknown payment status")
	ErrNotSendable     = apperr.Conflict("Only draft or sent payments can be sent")
	ErrNoRecipient     = apperr.Validation("No email address for this payment")
)

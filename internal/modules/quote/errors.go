package quote

import "conveycrm/internal/pkg/apperr"

var (
	ErrQuoteNotFound   = apperr.NotFound("Quote not found")
	ErrVersionNotFound = apperr.NotFound("Quote version not found")
	ErrLeadNotFound    = apperr.NotFound("Lead not found")
	ErrNoItems         = apperr.Validation("At least one line item is required")
	ErrUnknownStatus   = apperr.Validation("Unknown quote status")
	ErrNoRecipient     = apperr.Validation("Quote has no client email to send to")
)

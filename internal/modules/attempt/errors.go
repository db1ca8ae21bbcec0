package attempt

import "conveycrm/internal/pkg/apperr"

var (
	ErrAttemptNotFound = apperr.NotFound("Contact attempt not found")
	ErrLeadNotFound    = apperr.NotFound("Lead not found")
	ErrUnknownStatus   = apperr.Validation("Unknown attempt status")
)

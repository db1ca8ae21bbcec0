package outcome

import "conveycrm/internal/pkg/apperr"

var (
	ErrOutcomeNotFound = apperr.NotFound("Outcome code not found")
	ErrOutcomeExists   = apperr.Validation("Outcome code already exists")
	ErrIDMismatch      = apperr.Validation("Outcome id in body does not match path")
)

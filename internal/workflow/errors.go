package workflow

import "conveycrm/internal/pkg/apperr"

var (
	ErrAttemptLimitExceeded    = apperr.Conflict("Maximum contact attempts reached")
	ErrQuotaExceeded           = apperr.Conflict("Agent quota exceeded")
	ErrInvalidStatusTransition = apperr.Conflict("Invalid status transition")
	ErrQuoteLocked             = apperr.Conflict("Quote can no longer be edited")
	ErrStaleUpdate             = apperr.Conflict("Record was modified by another request")
)

// detailed wraps a sentinel with a more specific message; errors.Is still matches the sentinel.
func detailed(sentinel *apperr.Error, message string) error {
	return &apperr.Error{Kind: sentinel.Kind, Message: message, Err: sentinel}
}

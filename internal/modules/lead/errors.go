package lead

import "conveycrm/internal/pkg/apperr"

var (
	ErrLeadNotFound     = apperr.NotFound("Lead not found")
	ErrOutcomeNotFound  = apperr.Validation("Unknown outcome code")
	ErrOutcomeInactive  = apperr.Validation("Outcome code is inactive")
	ErrOverrideDenied   = apperr.Forbidden("Not allowed to override agent quotas")
	ErrAssigneeRequired = apperr.Validation("assignedTo is required")
)

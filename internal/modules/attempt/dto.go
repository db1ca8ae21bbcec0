package attempt

import (
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/pagination"
)

type StatusRequest struct {
	Status  string  `json:"status" validate:"required"`
	Outcome *string `json:"outcome"`
	Notes   *string `json:"notes"`
}

type ListParams struct {
	LeadID string
	Status domain.AttemptStatus
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

type ListResult struct {
	Attempts   []domain.ContactAttempt `json:"attempts"`
	Pagination pagination.Meta         `json:"pagination"`
}

// TransitionResult carries the lead counter when the move consumed an attempt.
type TransitionResult struct {
	Attempt         domain.ContactAttempt `json:"attempt"`
	ContactAttempts *int                  `json:"contactAttempts,omitempty"`
}

package lead

import (
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/workflow"
)

type CreateLeadRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Source      string `json:"source"`
	Stage       string `json:"stage"`
	Priority    string `json:"priority"`
	Notes       string `json:"notes"`
	MaxAttempts int    `json:"maxAttempts" validate:"gte=0"`
}

// UpdateLeadRequest changes only the fields that are present. Revision must
// match the stored lead.
type UpdateLeadRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,min=1"`
	Source      *string `json:"source"`
	Status      *string `json:"status"`
	Stage       *string `json:"stage"`
	Priority    *string `json:"priority"`
	Notes       *string `json:"notes"`
	MaxAttempts *int    `json:"maxAttempts" validate:"omitempty,gte=1"`
	Revision    int     `json:"revision" validate:"required,gte=1"`
}

type AssignRequest struct {
	AssignedTo string `json:"assignedTo" validate:"required"`
	// Override skips the quota gate; only honoured for roles allowed to override.
	Override bool `json:"override"`
	Revision int  `json:"revision" validate:"gte=0"`
}

type OutcomeRequest struct {
	OutcomeCode string  `json:"outcomeCode" validate:"required"`
	Status      *string `json:"status"`
	Stage       *string `json:"stage"`
	Notes       *string `json:"notes"`
	Revision    int     `json:"revision" validate:"gte=0"`
}

type LogAttemptRequest struct {
	AttemptType string `json:"attemptType"`
	Status      string `json:"status"`
	Outcome     string `json:"outcome"`
	Notes       string `json:"notes"`
}

type ListParams struct {
	Filter workflow.LeadFilter
	Page   pagination.Params
}

type ListResult struct {
	Leads      []workflow.LeadView `json:"leads"`
	Pagination pagination.Meta     `json:"pagination"`
}

// OutcomeResult is the lead after the outcome, plus what happens next.
type OutcomeResult struct {
	workflow.LeadView
	NextAction       workflow.NextAction    `json:"nextAction"`
	ScheduledAttempt *domain.ContactAttempt `json:"scheduledAttempt,omitempty"`
	Archived         bool                   `json:"archived"`
}

type AttemptResult struct {
	Attempt domain.ContactAttempt `json:"attempt"`
	Lead    workflow.LeadView     `json:"lead"`
}

// Rules are the configurable parts of the lead workflow.
type Rules struct {
	Policy             workflow.OverduePolicy
	DefaultMaxAttempts int
	MaxAttemptsOutcome string
	QuotaDefaults      workflow.QuotaDefaults
}

package domain

import "time"

type LeadSource string

const (
	SourceHoowla         LeadSource = "Hoowla"
	SourceComparisonSite LeadSource = "Comparison Site"
	SourceDirect         LeadSource = "Direct"
	SourceReferral       LeadSource = "Referral"
)

var LeadSources = []LeadSource{SourceHoowla, SourceComparisonSite, SourceDirect, SourceReferral}

type LeadStatus string

const (
	LeadNew        LeadStatus = "New"
	LeadAssigned   LeadStatus = "Assigned"
	LeadContacted  LeadStatus = "Contacted"
	LeadInterested LeadStatus = "Interested"
	LeadQuoteSent  LeadStatus = "Quote Sent"
	LeadSold       LeadStatus = "Sold"
	LeadClosed     LeadStatus = "Closed"
	LeadArchived   LeadStatus = "Archived"
)

var LeadStatuses = []LeadStatus{
	LeadNew, LeadAssigned, LeadContacted, LeadInterested,
	LeadQuoteSent, LeadSold, LeadClosed, LeadArchived,
}

// Open reports whether the lead still counts against an agent's concurrent load.
func (s LeadStatus) Open() bool {
	return s != LeadSold && s != LeadClosed && s != LeadArchived
}

type LeadStage string

const (
	StageNew                LeadStage = "New"
	StageCall1              LeadStage = "Call-1"
	StageCall2              LeadStage = "Call-2"
	StageCall3              LeadStage = "Call-3"
	StageCall4              LeadStage = "Call-4"
	StageCall5              LeadStage = "Call-5"
	StageInterested         LeadStage = "Interested"
	StageReadyToInstruct    LeadStage = "Ready to Instruct"
	StageAwaitingPayment    LeadStage = "Awaiting Payment"
	StageAwaitingClientInfo LeadStage = "Awaiting Client Info"
	StageCompleted          LeadStage = "Completed"
)

var LeadStages = []LeadStage{
	StageNew, StageCall1, StageCall2, StageCall3, StageCall4, StageCall5,
	StageInterested, StageReadyToInstruct, StageAwaitingPayment,
	StageAwaitingClientInfo, StageCompleted,
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities High < Medium < Low for sorting.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

type Lead struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Source          LeadSource `json:"source"`
	Status          LeadStatus `json:"status"`
	Stage           LeadStage  `json:"stage"`
	Priority        Priority   `json:"priority"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	OutcomeCode     string     `json:"outcomeCode,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	QuoteID         string     `json:"quoteId,omitempty"`
	ContactAttempts int        `json:"contactAttempts"`
	MaxAttempts     int        `json:"maxAttempts"`
	Revision        int        `json:"revision"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastActionAt    *time.Time `json:"lastActionAt,omitempty"`
}

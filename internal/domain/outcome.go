package domain

import "time"

type OutcomeCategory string

const (
	CategoryContact  OutcomeCategory = "Contact"
	CategoryInterest OutcomeCategory = "Interest"
	CategoryFollowUp OutcomeCategory = "Follow-up"
	CategoryClose    OutcomeCategory = "Close"
	CategoryArchive  OutcomeCategory = "Archive"
)

var OutcomeCategories = []OutcomeCategory{
	CategoryContact, CategoryInterest, CategoryFollowUp, CategoryClose, CategoryArchive,
}

// ActionKind is the channel of the follow-up an outcome recommends.
type ActionKind string

const (
	ActionCall     ActionKind = "call"
	ActionSMS      ActionKind = "sms"
	ActionEmail    ActionKind = "email"
	ActionSchedule ActionKind = "schedule"
	ActionArchive  ActionKind = "archive"
)

var ActionKinds = []ActionKind{ActionCall, ActionSMS, ActionEmail, ActionSchedule, ActionArchive}

type OutcomeCode struct {
	ID            string          `json:"id" yaml:"id"`
	Code          string          `json:"code" yaml:"code"`
	Name          string          `json:"name" yaml:"name"`
	Description   string          `json:"description,omitempty" yaml:"description"`
	Category      OutcomeCategory `json:"category" yaml:"category"`
	NextAction    ActionKind      `json:"nextAction" yaml:"next_action"`
	NextActions   []string        `json:"nextActions" yaml:"next_actions"`
	AutoSchedule  bool            `json:"autoSchedule" yaml:"auto_schedule"`
	ScheduleDelay int             `json:"scheduleDelay" yaml:"schedule_delay"`
	MaxAttempts   int             `json:"maxAttempts" yaml:"max_attempts"`
	LeadStatus    LeadStatus      `json:"leadStatus,omitempty" yaml:"lead_status"`
	LeadStage     LeadStage       `json:"leadStage,omitempty" yaml:"lead_stage"`
	IsActive      bool            `json:"isActive" yaml:"active"`
	CreatedAt     time.Time       `json:"createdAt" yaml:"-"`
	UpdatedAt     time.Time       `json:"updatedAt" yaml:"-"`
}

package domain

import "time"

type TargetType string

const (
	TargetLead    TargetType = "lead"
	TargetQuote   TargetType = "quote"
	TargetAttempt TargetType = "attempt"
	TargetInvoice TargetType = "invoice"
	TargetUser    TargetType = "user"
	TargetOutcome TargetType = "outcome"
	TargetQuota   TargetType = "quota"
)

type ActivityLog struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Action     string         `json:"action"`
	TargetType TargetType     `json:"targetType"`
	TargetID   string         `json:"targetId"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    map[string]any `json:"details,omitempty"`
}

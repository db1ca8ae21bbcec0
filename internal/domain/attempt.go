package domain

import "time"

type AttemptType string

const (
	AttemptCall  AttemptType = "Call"
	AttemptSMS   AttemptType = "SMS"
	AttemptEmail AttemptType = "Email"
)

type AttemptStatus string

const (
	AttemptScheduled  AttemptStatus = "Scheduled"
	AttemptInProgress AttemptStatus = "In Progress"
	AttemptCompleted  AttemptStatus = "Completed"
	AttemptFailed     AttemptStatus = "Failed"
	AttemptCancelled  AttemptStatus = "Cancelled"
)

// Counts reports whether an attempt in this status consumes one of the lead's attempts.
func (s AttemptStatus) Counts() bool {
	return s == AttemptCompleted || s == AttemptFailed
}

type ContactAttempt struct {
	ID            string        `json:"id"`
	LeadID        string        `json:"leadId"`
	AttemptType   AttemptType   `json:"attemptType"`
	Status        AttemptStatus `json:"status"`
	AttemptNumber int           `json:"attemptNumber"`
	ScheduledAt   time.Time     `json:"scheduledAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	Outcome       string        `json:"outcome,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	UserID        string        `json:"userId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

package quota

import (
	"conveycrm/internal/domain"
	"conveycrm/internal/workflow"
)

// UpdateRequest changes the ceilings that are present; zero means unlimited.
type UpdateRequest struct {
	DailyQuota    *int  `json:"dailyQuota" validate:"omitempty,gte=0"`
	WeeklyQuota   *int  `json:"weeklyQuota" validate:"omitempty,gte=0"`
	MonthlyQuota  *int  `json:"monthlyQuota" validate:"omitempty,gte=0"`
	MaxConcurrent *int  `json:"maxConcurrent" validate:"omitempty,gte=0"`
	PriorityLeads *bool `json:"priorityLeads"`
}

// View is a quota with the agent's open lead count and utilisation.
type View struct {
	domain.AgentQuota
	CurrentLeads int                  `json:"currentLeads"`
	Status       workflow.QuotaStatus `json:"status"`
}

package domain

import "time"

// AgentQuota holds assignment ceilings and rolling counters for one agent key.
// A zero ceiling means unlimited.
type AgentQuota struct {
	Agent           string    `json:"agent"`
	DailyQuota      int       `json:"dailyQuota"`
	WeeklyQuota     int       `json:"weeklyQuota"`
	MonthlyQuota    int       `json:"monthlyQuota"`
	MaxConcurrent   int       `json:"maxConcurrent"`
	PriorityLeads   bool      `json:"priorityLeads"`
	TodayAssigned   int       `json:"todayAssigned"`
	WeeklyAssigned  int       `json:"weeklyAssigned"`
	MonthlyAssigned int       `json:"monthlyAssigned"`
	DayStart        time.Time `json:"dayStart"`
	WeekStart       time.Time `json:"weekStart"`
	MonthStart      time.Time `json:"monthStart"`
	Revision        int       `json:"revision"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

package workflow

import (
	"fmt"
	"time"

	"conveycrm/internal/domain"
)

type QuotaStatus string

const (
	QuotaAvailable QuotaStatus = "Available"
	QuotaNearLimit QuotaStatus = "Near Limit"
	QuotaFull      QuotaStatus = "Full"
)

const nearLimitRatio = 0.8

// QuotaDefaults seed the quota row of an agent seen for the first time.
type QuotaDefaults struct {
	DailyQuota    int `yaml:"daily"`
	WeeklyQuota   int `yaml:"weekly"`
	MonthlyQuota  int `yaml:"monthly"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

func NewQuota(agent string, d QuotaDefaults, now time.Time) domain.AgentQuota {
	q := domain.AgentQuota{
		Agent:         agent,
		DailyQuota:    d.DailyQuota,
		WeeklyQuota:   d.WeeklyQuota,
		MonthlyQuota:  d.MonthlyQuota,
		MaxConcurrent: d.MaxConcurrent,
	}
	RollWindows(&q, now)
	return q
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday that opens t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// RollWindows resets any counter whose window has passed. It reports whether anything changed.
func RollWindows(q *domain.AgentQuota, now time.Time) bool {
	changed := false
	if day := StartOfDay(now); !q.DayStart.Equal(day) {
		q.DayStart = day
		q.TodayAssigned = 0
		changed = true
	}
	if week := StartOfWeek(now); !q.WeekStart.Equal(week) {
		q.WeekStart = week
		q.WeeklyAssigned = 0
		changed = true
	}
	if month := StartOfMonth(now); !q.MonthStart.Equal(month) {
		q.MonthStart = month
		q.MonthlyAssigned = 0
		changed = true
	}
	return changed
}

// CheckAssignment gates one more assignment against every ceiling.
// currentLeads is the agent's count of open leads.
func CheckAssignment(q domain.AgentQuota, currentLeads int) error {
	switch {
	case q.DailyQuota > 0 && q.TodayAssigned >= q.DailyQuota:
		return detailed(ErrQuotaExceeded, fmt.Sprintf("Agent quota exceeded: daily limit %d reached", q.DailyQuota))
	case q.WeeklyQuota > 0 && q.WeeklyAssigned >= q.WeeklyQuota:
		return detailed(ErrQuotaExceeded, fmt.Sprintf("Agent quota exceeded: weekly limit %d reached", q.WeeklyQuota))
	case q.MonthlyQuota > 0 && q.MonthlyAssigned >= q.MonthlyQuota:
		return detailed(ErrQuotaExceeded, fmt.Sprintf("Agent quota exceeded: monthly limit %d reached", q.MonthlyQuota))
	case q.MaxConcurrent > 0 && currentLeads >= q.MaxConcurrent:
		return detailed(ErrQuotaExceeded, fmt.Sprintf("Agent quota exceeded: %d concurrent leads", q.MaxConcurrent))
	}
	return nil
}

func RecordAssignment(q *domain.AgentQuota) {
	q.TodayAssigned++
	q.WeeklyAssigned++
	q.MonthlyAssigned++
}

// StatusOf reports the worst utilisation across all windows.
func StatusOf(q domain.AgentQuota, currentLeads int) QuotaStatus {
	worst := 0.0
	for _, pair := range [][2]int{
		{q.TodayAssigned, q.DailyQuota},
		{q.WeeklyAssigned, q.WeeklyQuota},
		{q.MonthlyAssigned, q.MonthlyQuota},
		{currentLeads, q.MaxConcurrent},
	} {
		if pair[1] <= 0 {
			continue
		}
		if r := float64(pair[0]) / float64(pair[1]); r > worst {
			worst = r
		}
	}

	switch {
	case worst >= 1:
		return QuotaFull
	case worst >= nearLimitRatio:
		return QuotaNearLimit
	default:
		return QuotaAvailable
	}
}

package workflow

import (
	"sort"
	"strings"
	"time"

	"conveycrm/internal/domain"
)

// Unassigned matches leads without an agent when used as the assignedTo filter.
const Unassigned = "unassigned"

type SortKey string

const (
	SortNone         SortKey = ""
	SortAge          SortKey = "age"
	SortCreatedAt    SortKey = "createdAt"
	SortLastActionAt SortKey = "lastActionAt"
	SortPriority     SortKey = "priority"
	SortName         SortKey = "name"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortAge, SortCreatedAt, SortLastActionAt, SortPriority, SortName:
		return true
	}
	return false
}

// LeadFilter is a set of predicates. Empty fields are inactive; active ones combine with AND.
type LeadFilter struct {
	Search      string
	Status      domain.LeadStatus
	Source      domain.LeadSource
	Stage       domain.LeadStage
	Priority    domain.Priority
	AssignedTo  string
	OutcomeCode string
	AgeBucket   AgeBucket
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      SortKey
	Descending  bool
}

func (f LeadFilter) Match(v LeadView) bool {
	if f.Search != "" && !matchesSearch(v.Lead, f.Search) {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.Source != "" && v.Source != f.Source {
		return false
	}
	if f.Stage != "" && v.Stage != f.Stage {
		return false
	}
	if f.Priority != "" && v.Priority != f.Priority {
		return false
	}
	if f.AssignedTo != "" {
		if f.AssignedTo == Unassigned {
			if v.AssignedTo != "" {
				return false
			}
		} else if v.AssignedTo != f.AssignedTo {
			return false
		}
	}
	if f.OutcomeCode != "" && v.OutcomeCode != f.OutcomeCode {
		return false
	}
	if f.AgeBucket != "" && v.AgeBucket != f.AgeBucket {
		return false
	}
	if f.CreatedFrom != nil && v.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && v.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

func matchesSearch(l domain.Lead, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(strings.ToLower(l.Email), q) ||
		strings.Contains(l.Phone, strings.TrimSpace(search))
}

// FilterLeads keeps input order unless a sort key is set; sorting is stable.
func FilterLeads(views []LeadView, f LeadFilter) []LeadView {
	out := make([]LeadView, 0, len(views))
	for _, v := range views {
		if f.Match(v) {
			out = append(out, v)
		}
	}

	less := lessFor(f.SortBy)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFor(key SortKey) func(a, b LeadView) bool {
	switch key {
	case SortAge:
		return func(a, b LeadView) bool { return a.AgeInHours < b.AgeInHours }
	case SortCreatedAt:
		return func(a, b LeadView) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortLastActionAt:
		return func(a, b LeadView) bool {
			switch {
			case a.LastActionAt == nil:
				return false
			case b.LastActionAt == nil:
				return true
			default:
				return a.LastActionAt.Before(*b.LastActionAt)
			}
		}
	case SortPriority:
		return func(a, b LeadView) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortName:
		return func(a, b LeadView) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
	return nil
}

package workflow

import (
	"math"
	"time"

	"conveycrm/internal/domain"
)

// OldAfterHours separates the New and Old age buckets.
const OldAfterHours = 24.0

type AgeBucket string

const (
	BucketNew     AgeBucket = "New"
	BucketOld     AgeBucket = "Old"
	BucketOverdue AgeBucket = "Overdue"
)

func (b AgeBucket) Valid() bool {
	return b == BucketNew || b == BucketOld || b == BucketOverdue
}

// OverduePolicy holds the per-stage age threshold in hours after which an
// untouched lead is overdue. A missing or zero threshold never flags.
type OverduePolicy struct {
	Thresholds map[domain.LeadStage]float64
}

func DefaultOverduePolicy() OverduePolicy {
	return OverduePolicy{Thresholds: map[domain.LeadStage]float64{
		domain.StageNew:                12,
		domain.StageCall1:              48,
		domain.StageCall2:              48,
		domain.StageCall3:              48,
		domain.StageCall4:              48,
		domain.StageCall5:              48,
		domain.StageInterested:         72,
		domain.StageReadyToInstruct:    72,
		domain.StageAwaitingPayment:    168,
		domain.StageAwaitingClientInfo: 168,
		domain.StageCompleted:          0,
	}}
}

// AgeInHours is the fractional age of a record, clamped at zero for clock skew.
func AgeInHours(createdAt, now time.Time) float64 {
	d := now.Sub(createdAt)
	if d < 0 {
		return 0
	}
	return d.Hours()
}

// IsOverdue is a pure function of stage, age and attempt count.
// A lead that has used all its attempts is archival material, not overdue.
// A lead still in stage New is only overdue while nobody has tried to reach it.
func (p OverduePolicy) IsOverdue(stage domain.LeadStage, ageInHours float64, contactAttempts, maxAttempts int) bool {
	threshold := p.Thresholds[stage]
	if threshold <= 0 {
		return false
	}
	if maxAttempts > 0 && contactAttempts >= maxAttempts {
		return false
	}
	if stage == domain.StageNew && contactAttempts > 0 {
		return false
	}
	return ageInHours >= threshold
}

func Bucket(ageInHours float64, overdue bool) AgeBucket {
	switch {
	case overdue:
		return BucketOverdue
	case ageInHours < OldAfterHours:
		return BucketNew
	default:
		return BucketOld
	}
}

var stageProgression = map[domain.LeadStage][]domain.LeadStage{
	domain.StageNew:                {domain.StageCall1},
	domain.StageCall1:              {domain.StageCall2, domain.StageInterested},
	domain.StageCall2:              {domain.StageCall3, domain.StageInterested},
	domain.StageCall3:              {domain.StageCall4, domain.StageInterested},
	domain.StageCall4:              {domain.StageCall5, domain.StageInterested},
	domain.StageCall5:              {domain.StageInterested},
	domain.StageInterested:         {domain.StageReadyToInstruct},
	domain.StageReadyToInstruct:    {domain.StageAwaitingPayment, domain.StageAwaitingClientInfo},
	domain.StageAwaitingPayment:    {domain.StageCompleted},
	domain.StageAwaitingClientInfo: {domain.StageCompleted},
	domain.StageCompleted:          {},
}

// SuggestedStages lists the usual next stages. The progression is advisory only.
func SuggestedStages(stage domain.LeadStage) []domain.LeadStage {
	next := stageProgression[stage]
	out := make([]domain.LeadStage, len(next))
	copy(out, next)
	return out
}

func ValidStage(stage domain.LeadStage) bool {
	_, ok := stageProgression[stage]
	return ok
}

// LeadView is a lead together with the values derived from the clock at read time.
type LeadView struct {
	domain.Lead
	AgeInHours        float64            `json:"ageInHours"`
	AgeBucket         AgeBucket          `json:"ageBucket"`
	IsOverdue         bool               `json:"isOverdue"`
	AttemptsRemaining int                `json:"attemptsRemaining"`
	SuggestedStages   []domain.LeadStage `json:"suggestedStages"`
}

func (p OverduePolicy) View(lead domain.Lead, now time.Time) LeadView {
	age := AgeInHours(lead.CreatedAt, now)
	overdue := p.IsOverdue(lead.Stage, age, lead.ContactAttempts, lead.MaxAttempts)

	remaining := lead.MaxAttempts - lead.ContactAttempts
	if remaining < 0 {
		remaining = 0
	}

	return LeadView{
		Lead:              lead,
		AgeInHours:        math.Round(age*100) / 100,
		AgeBucket:         Bucket(age, overdue),
		IsOverdue:         overdue,
		AttemptsRemaining: remaining,
		SuggestedStages:   SuggestedStages(lead.Stage),
	}
}

func (p OverduePolicy) Views(leads []domain.Lead, now time.Time) []LeadView {
	out := make([]LeadView, 0, len(leads))
	for _, l := range leads {
		out = append(out, p.View(l, now))
	}
	return out
}

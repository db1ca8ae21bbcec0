package workflow

import (
	"testing"
	"time"

	"conveycrm/internal/domain"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func hoursAgo(h float64) time.Time {
	return t0.Add(-time.Duration(h * float64(time.Hour)))
}

func TestAgeInHours(t *testing.T) {
	assert.InDelta(t, 19.5, AgeInHours(hoursAgo(19.5), t0), 1e-9)
	assert.Equal(t, 0.0, AgeInHours(t0.Add(time.Hour), t0))
}

func TestIsOverdue(t *testing.T) {
	p := DefaultOverduePolicy()

	tests := []struct {
		name     string
		stage    domain.LeadStage
		age      float64
		attempts int
		max      int
		want     bool
	}{
		{"untouched new lead past threshold", domain.StageNew, 19.5, 0, 5, true},
		{"fresh new lead", domain.StageNew, 6, 0, 5, false},
		{"new lead already tried", domain.StageNew, 30, 1, 5, false},
		{"call stage within window", domain.StageCall1, 22.75, 1, 5, false},
		{"call stage past window", domain.StageCall2, 50, 2, 5, true},
		{"attempts exhausted", domain.StageCall5, 500, 5, 5, false},
		{"completed never overdue", domain.StageCompleted, 10000, 0, 5, false},
		{"exactly at threshold", domain.StageInterested, 72, 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsOverdue(tt.stage, tt.age, tt.attempts, tt.max))
		})
	}
}

func TestBucket(t *testing.T) {
	assert.Equal(t, BucketNew, Bucket(3, false))
	assert.Equal(t, BucketOld, Bucket(24, false))
	assert.Equal(t, BucketOverdue, Bucket(3, true))
}

func TestView_DerivesFromClock(t *testing.T) {
	p := DefaultOverduePolicy()
	lead := domain.Lead{
		ID: "l1", Stage: domain.StageNew, Status: domain.LeadNew,
		MaxAttempts: 5, CreatedAt: hoursAgo(19.5),
	}

	v := p.View(lead, t0)
	assert.Equal(t, 19.5, v.AgeInHours)
	assert.True(t, v.IsOverdue)
	assert.Equal(t, BucketOverdue, v.AgeBucket)
	assert.Equal(t, 5, v.AttemptsRemaining)
	assert.Equal(t, []domain.LeadStage{domain.StageCall1}, v.SuggestedStages)

	later := p.View(lead, t0.Add(-15*time.Hour))
	assert.False(t, later.IsOverdue)
	assert.Equal(t, BucketNew, later.AgeBucket)
}

func TestSuggestedStages_ReturnsCopy(t *testing.T) {
	s := SuggestedStages(domain.StageReadyToInstruct)
	s[0] = domain.StageCompleted
	assert.Equal(t, domain.StageAwaitingPayment, SuggestedStages(domain.StageReadyToInstruct)[0])
	assert.Empty(t, SuggestedStages(domain.StageCompleted))
}

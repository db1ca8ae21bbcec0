package workflow

import (
	"testing"

	"conveycrm/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestCanLogAttempt(t *testing.T) {
	assert.NoError(t, CanLogAttempt(domain.Lead{ContactAttempts: 4, MaxAttempts: 5}))

	err := CanLogAttempt(domain.Lead{ContactAttempts: 5, MaxAttempts: 5})
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
	assert.Contains(t, err.Error(), "5/5")
}

func TestEffectiveMaxAttempts(t *testing.T) {
	assert.Equal(t, 3, EffectiveMaxAttempts(5, 3))
	assert.Equal(t, 5, EffectiveMaxAttempts(5, 0))
	assert.Equal(t, 5, EffectiveMaxAttempts(5, 8))
}

func TestCanTransitionAttempt(t *testing.T) {
	assert.NoError(t, CanTransitionAttempt(domain.AttemptScheduled, domain.AttemptCompleted))
	assert.NoError(t, CanTransitionAttempt(domain.AttemptInProgress, domain.AttemptFailed))
	assert.ErrorIs(t, CanTransitionAttempt(domain.AttemptCompleted, domain.AttemptScheduled), ErrInvalidStatusTransition)
	assert.ErrorIs(t, CanTransitionAttempt(domain.AttemptCancelled, domain.AttemptCompleted), ErrInvalidStatusTransition)
}

func TestAttemptStatusCounts(t *testing.T) {
	assert.True(t, domain.AttemptCompleted.Counts())
	assert.True(t, domain.AttemptFailed.Counts())
	assert.False(t, domain.AttemptCancelled.Counts())
	assert.False(t, domain.AttemptScheduled.Counts())
}

package config

import (
	"testing"
	"time"

	"conveycrm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_TTL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "https://checkout.stripe.com/pay", cfg.CheckoutBaseURL)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestFromEnv_ProdRejectsDefaultSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromEnv_BadDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_TTL")
}

func TestFromEnv_CORSList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadWorkflow_Default(t *testing.T) {
	wf, err := LoadWorkflow("")
	require.NoError(t, err)

	assert.Equal(t, 5, wf.DefaultMaxAttempts)
	assert.Len(t, wf.Outcomes, 6)

	called, ok := wf.OutcomeTable().Get("OC-001")
	require.True(t, ok)
	assert.Equal(t, "Called - No Answer", called.Name)
	assert.True(t, called.AutoSchedule)
	assert.Equal(t, 2, called.ScheduleDelay)
	assert.Equal(t, 3, called.MaxAttempts)

	policy := wf.Policy()
	assert.Equal(t, 12.0, policy.Thresholds[domain.StageNew])
}

func TestParseWorkflow_RejectsUnknownArchiveOutcome(t *testing.T) {
	raw := []byte(`
default_max_attempts: 5
max_attempts_outcome: NOPE
outcomes:
  - id: A
    code: A
    name: A
    category: Contact
    next_action: call
    active: true
`)
	_, err := ParseWorkflow(raw)
	assert.ErrorContains(t, err, "max_attempts_outcome")
}

func TestParseWorkflow_RejectsUnknownStage(t *testing.T) {
	raw := []byte(`
default_max_attempts: 5
max_attempts_outcome: A
overdue_hours:
  Call-9: 10
outcomes:
  - id: A
    code: A
    name: A
    category: Archive
    next_action: archive
    active: true
`)
	_, err := ParseWorkflow(raw)
	assert.ErrorContains(t, err, "Call-9")
}

func TestParseWorkflow_RejectsBadNextAction(t *testing.T) {
	raw := []byte(`
default_max_attempts: 5
max_attempts_outcome: A
outcomes:
  - id: A
    code: A
    name: A
    category: Archive
    next_action: teleport
    active: true
`)
	_, err := ParseWorkflow(raw)
	assert.ErrorContains(t, err, "teleport")
}

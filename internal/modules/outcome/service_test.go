package outcome

import (
	"context"
	"testing"
	"time"

	"conveycrm/internal/activity"
	"conveycrm/internal/config"
	"conveycrm/internal/database"
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var admin = domain.Actor{UserID: "u-admin", Role: domain.RoleAdmin}

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	clk := clock.NewFixed(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	svc := NewService(repository.NewOutcomeRepository(db),
		activity.NewRecorder(repository.NewActivityRepository(db), clk), clk, zap.NewNop())

	wf, err := config.LoadWorkflow("")
	require.NoError(t, err)
	n, err := svc.Bootstrap(context.Background(), wf.Outcomes)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	return svc
}

func validRequest(id, code string) SaveRequest {
	return SaveRequest{
		ID:            id,
		Code:          code,
		Name:          "Voicemail left",
		Category:      string(domain.CategoryContact),
		NextAction:    string(domain.ActionCall),
		NextActions:   []string{"Call tomorrow"},
		AutoSchedule:  true,
		ScheduleDelay: 24,
	}
}

func TestService_Bootstrap_IsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.SetActive(ctx, admin, "OC-002", false)
	require.NoError(t, err)

	wf, err := config.LoadWorkflow("")
	require.NoError(t, err)
	n, err := svc.Bootstrap(ctx, wf.Outcomes)
	require.NoError(t, err)
	assert.Zero(t, n)

	o, err := svc.Get(ctx, "OC-002")
	require.NoError(t, err)
	assert.False(t, o.IsActive)
}

func TestService_NextAction(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		want workflow.NextAction
	}{
		{"no answer", "OC-001", workflow.NextAction{ActionLabel: "Schedule callback", DelayHours: 2, Kind: domain.ActionSMS}},
		{"quote sent", "OC-004", workflow.NextAction{ActionLabel: "Follow up in 3 days", DelayHours: 72, Kind: domain.ActionCall}},
		{"unknown", "OC-999", workflow.NextAction{ActionLabel: workflow.NoActionDefined}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.NextAction(ctx, tt.id)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NextAction(%s) mismatch (-want +got):\n%s", tt.id, diff)
			}
		})
	}
}

func TestService_NextAction_InactiveOutcome(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.SetActive(ctx, admin, "OC-001", false)
	require.NoError(t, err)

	got, err := svc.NextAction(ctx, "OC-001")
	require.NoError(t, err)
	assert.Equal(t, workflow.NoActionDefined, got.ActionLabel)
	assert.Zero(t, got.DelayHours)
}

func TestService_Create(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, admin, validRequest("OC-007", "VOICEMAIL"))
	require.NoError(t, err)
	assert.True(t, o.IsActive)

	_, err = svc.Create(ctx, admin, validRequest("OC-007", "OTHER"))
	assert.ErrorIs(t, err, ErrOutcomeExists)

	_, err = svc.Create(ctx, admin, validRequest("OC-008", "SOLD"))
	assert.ErrorIs(t, err, ErrOutcomeExists)
}

func TestService_Create_RejectsInvalidDefinitions(t *testing.T) {
	svc := newService(t)

	bad := validRequest("OC-009", "BAD")
	bad.NextAction = string(domain.ActionArchive)
	_, err := svc.Create(context.Background(), admin, bad)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	bad = validRequest("OC-010", "BAD2")
	bad.LeadStage = "Call-9"
	_, err = svc.Create(context.Background(), admin, bad)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestService_Update(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	req := validRequest("", "CALLED")
	req.ScheduleDelay = 4
	o, err := svc.Update(ctx, admin, "OC-001", req)
	require.NoError(t, err)
	assert.Equal(t, "OC-001", o.ID)
	assert.Equal(t, 4, o.ScheduleDelay)
	assert.True(t, o.IsActive)

	_, err = svc.Update(ctx, admin, "OC-001", validRequest("OC-002", "X"))
	assert.ErrorIs(t, err, ErrIDMismatch)

	_, err = svc.Update(ctx, admin, "OC-404", validRequest("", "Y"))
	assert.ErrorIs(t, err, ErrOutcomeNotFound)
}

func TestService_List(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.SetActive(ctx, admin, "OC-003", false)
	require.NoError(t, err)

	all, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	active, err := svc.List(ctx, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 5)

	archive, err := svc.List(ctx, ListFilter{Category: domain.CategoryArchive})
	require.NoError(t, err)
	for _, o := range archive {
		assert.Equal(t, domain.CategoryArchive, o.Category)
	}
}

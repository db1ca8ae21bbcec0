package lead

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"conveycrm/internal/activity"
	"conveycrm/internal/config"
	"conveycrm/internal/database"
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Monday, so daily and weekly windows start together.
var start = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

var (
	agent   = domain.Actor{UserID: "u-agent", Role: domain.RoleAgent}
	manager = domain.Actor{UserID: "u-manager", Role: domain.RoleManager}
)

type fixture struct {
	svc      *Service
	clock    *clock.Fixed
	leads    *repository.LeadRepository
	attempts *repository.AttemptRepository
	quotas   *repository.QuotaRepository
}

func newFixture(t *testing.T, tweak ...func(*Rules)) *fixture {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	wf, err := config.LoadWorkflow("")
	require.NoError(t, err)

	outcomes := repository.NewOutcomeRepository(db)
	for i := range wf.Outcomes {
		require.NoError(t, outcomes.Upsert(context.Background(), &wf.Outcomes[i]))
	}

	clk := clock.NewFixed(start)
	activities := repository.NewActivityRepository(db)
	f := &fixture{
		clock:    clk,
		leads:    repository.NewLeadRepository(db),
		attempts: repository.NewAttemptRepository(db),
		quotas:   repository.NewQuotaRepository(db),
	}

	rules := Rules{
		Policy:             wf.Policy(),
		DefaultMaxAttempts: wf.DefaultMaxAttempts,
		MaxAttemptsOutcome: wf.MaxAttemptsOutcome,
		QuotaDefaults:      wf.Quota,
	}
	for _, fn := range tweak {
		fn(&rules)
	}

	f.svc = NewService(Deps{
		Leads:    f.leads,
		Attempts: f.attempts,
		Quotas:   f.quotas,
		Outcomes: outcomes,
		History:  activities,
		Tx:       repository.NewTxManager(db),
		Recorder: activity.NewRecorder(activities, clk),
	}, rules, clk, zap.NewNop())
	return f
}

func (f *fixture) createLead(t *testing.T, name string) *workflow.LeadView {
	t.Helper()
	v, err := f.svc.Create(context.Background(), agent, CreateLeadRequest{
		Name:  name,
		Email: name + "@example.com",
		Phone: "07700 900123",
	})
	require.NoError(t, err)
	return v
}

func TestService_CreateAndAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, agent, CreateLeadRequest{Name: "A", Email: "a@x.com", Phone: "1"})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadNew, created.Status)
	assert.Equal(t, domain.StageNew, created.Stage)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Equal(t, domain.SourceDirect, created.Source)
	assert.Equal(t, 0, created.ContactAttempts)
	assert.Equal(t, 5, created.MaxAttempts)
	assert.Equal(t, 1, created.Revision)

	assigned, err := f.svc.Assign(ctx, manager, true, created.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadAssigned, assigned.Status)
	assert.Equal(t, "agent1", assigned.AssignedTo)
	assert.Equal(t, 2, assigned.Revision)

	q, err := f.quotas.Get(ctx, "agent1")
	require.NoError(t, err)
	assert.Equal(t, 1, q.TodayAssigned)
	assert.Equal(t, 15, q.DailyQuota)
}

func TestService_Create_RejectsUnknownSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), agent, CreateLeadRequest{Name: "A", Email: "a@x.com", Phone: "1", Source: "Billboard"})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestService_Get_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestService_Update_StaleRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createLead(t, "stale")

	name := "Renamed"
	updated, err := f.svc.Update(ctx, agent, l.ID, UpdateLeadRequest{Name: &name, Revision: 1})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 2, updated.Revision)

	other := "Lost update"
	_, err = f.svc.Update(ctx, agent, l.ID, UpdateLeadRequest{Name: &other, Revision: 1})
	assert.ErrorIs(t, err, workflow.ErrStaleUpdate)

	got, err := f.svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestService_Update_RejectsUnknownStage(t *testing.T) {
	f := newFixture(t)
	l := f.createLead(t, "stage")

	stage := "Call-9"
	_, err := f.svc.Update(context.Background(), agent, l.ID, UpdateLeadRequest{Stage: &stage, Revision: 1})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestService_LogAttempt_StopsAtCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, agent, CreateLeadRequest{Name: "B", Email: "b@x.com", Phone: "2", MaxAttempts: 2})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		res, err := f.svc.LogAttempt(ctx, agent, l.ID, LogAttemptRequest{})
		require.NoError(t, err)
		assert.Equal(t, i, res.Attempt.AttemptNumber)
		assert.Equal(t, domain.AttemptCompleted, res.Attempt.Status)
		assert.Equal(t, i, res.Lead.ContactAttempts)
	}

	_, err = f.svc.LogAttempt(ctx, agent, l.ID, LogAttemptRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrAttemptLimitExceeded)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	got, err := f.leads.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ContactAttempts)

	rows, err := f.attempts.List(ctx, repository.AttemptQuery{LeadID: l.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestService_LogAttempt_ConcurrentCallersShareTheCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, agent, CreateLeadRequest{Name: "P", Email: "p@x.com", Phone: "3", MaxAttempts: 3})
	require.NoError(t, err)

	const callers = 12
	var (
		wg       sync.WaitGroup
		ok       atomic.Int32
		rejected atomic.Int32
		numbers  sync.Map
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.LogAttempt(ctx, agent, l.ID, LogAttemptRequest{})
			switch {
			case err == nil:
				ok.Add(1)
				numbers.Store(res.Attempt.AttemptNumber, true)
			case errors.Is(err, workflow.ErrAttemptLimitExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, ok.Load())
	assert.EqualValues(t, callers-3, rejected.Load())
	for n := 1; n <= 3; n++ {
		_, seen := numbers.Load(n)
		assert.True(t, seen, "attempt number %d", n)
	}

	got, err := f.leads.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ContactAttempts)

	rows, err := f.attempts.List(ctx, repository.AttemptQuery{LeadID: l.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestService_LogAttempt_RejectsNonCountingStatus(t *testing.T) {
	f := newFixture(t)
	l := f.createLead(t, "status")

	_, err := f.svc.LogAttempt(context.Background(), agent, l.ID, LogAttemptRequest{Status: "Scheduled"})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestService_LogOutcome_SchedulesNextAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createLead(t, "c")
	for i := 0; i < 2; i++ {
		_, err := f.svc.LogAttempt(ctx, agent, l.ID, LogAttemptRequest{})
		require.NoError(t, err)
	}

	res, err := f.svc.LogOutcome(ctx, agent, l.ID, OutcomeRequest{OutcomeCode: "OC-001"})
	require.NoError(t, err)

	require.NotNil(t, res.ScheduledAttempt)
	assert.False(t, res.Archived)
	assert.Equal(t, 3, res.ScheduledAttempt.AttemptNumber)
	assert.Equal(t, domain.AttemptScheduled, res.ScheduledAttempt.Status)
	assert.True(t, start.Add(2*time.Hour).Equal(res.ScheduledAttempt.ScheduledAt))
	assert.Equal(t, domain.LeadContacted, res.Status)
	assert.Equal(t, "OC-001", res.OutcomeCode)
	assert.Equal(t, "Schedule callback", res.NextAction.ActionLabel)
	assert.Equal(t, 2, res.NextAction.DelayHours)
	require.NotNil(t, res.LastActionAt)
}

func TestService_LogOutcome_ArchivesAtCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createLead(t, "d")
	for i := 0; i < 3; i++ {
		_, err := f.svc.LogAttempt(ctx, agent, l.ID, LogAttemptRequest{})
		require.NoError(t, err)
	}

	res, err := f.svc.LogOutcome(ctx, agent, l.ID, OutcomeRequest{OutcomeCode: "OC-001"})
	require.NoError(t, err)

	assert.True(t, res.Archived)
	assert.Nil(t, res.ScheduledAttempt)
	assert.Equal(t, domain.LeadArchived, res.Status)
	assert.Equal(t, "OC-006", res.OutcomeCode)
	assert.Equal(t, "Archive lead", res.NextAction.ActionLabel)

	scheduled, err := f.attempts.List(ctx, repository.AttemptQuery{LeadID: l.ID, Status: domain.AttemptScheduled})
	require.NoError(t, err)
	assert.Empty(t, scheduled)
}

func TestService_LogOutcome_ReschedulingCancelsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createLead(t, "e")

	first, err := f.svc.LogOutcome(ctx, agent, l.ID, OutcomeRequest{OutcomeCode: "OC-001"})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.svc.LogOutcome(ctx, agent, l.ID, OutcomeRequest{OutcomeCode: "OC-002"})
	require.NoError(t, err)

	pending, err := f.attempts.List(ctx, repository.AttemptQuery{LeadID: l.ID, Status: domain.AttemptScheduled})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ScheduledAttempt.ID, pending[0].ID)
	assert.NotEqual(t, first.ScheduledAttempt.ID, pending[0].ID)
	assert.Equal(t, domain.AttemptEmail, pending[0].AttemptType)
	assert.Equal(t, domain.StageInterested, second.Stage)
}

func TestService_LogOutcome_ExplicitStatusWins(t *testing.T) {
	f := newFixture(t)
	l := f.createLead(t, "f")

	status, notes := "Closed", "went elsewhere"
	res, err := f.svc.LogOutcome(context.Background(), agent, l.ID, OutcomeRequest{OutcomeCode: "OC-003", Status: &status, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, domain.LeadClosed, res.Status)
	assert.Equal(t, "went elsewhere", res.Notes)
	assert.Nil(t, res.ScheduledAttempt)
	assert.False(t, res.Archived)
}

func TestService_LogOutcome_UnknownCode(t *testing.T) {
	f := newFixture(t)
	l := f.createLead(t, "g")

	_, err := f.svc.LogOutcome(context.Background(), agent, l.ID, OutcomeRequest{OutcomeCode: "Called - No Answer"})

	assert.ErrorIs(t, err, ErrOutcomeNotFound)
}

func TestService_Assign_QuotaGate(t *testing.T) {
	f := newFixture(t, func(r *Rules) { r.QuotaDefaults.DailyQuota = 1 })
	ctx := context.Background()
	first := f.createLead(t, "q1")
	second := f.createLead(t, "q2")

	_, err := f.svc.Assign(ctx, manager, true, first.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, manager, true, second.ID, AssignRequest{AssignedTo: "agent1"})
	assert.ErrorIs(t, err, workflow.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "daily limit 1 reached")

	untouched, err := f.leads.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, untouched.AssignedTo)
	assert.Equal(t, domain.LeadNew, untouched.Status)

	_, err = f.svc.Assign(ctx, agent, false, second.ID, AssignRequest{AssignedTo: "agent1", Override: true})
	assert.ErrorIs(t, err, ErrOverrideDenied)

	overridden, err := f.svc.Assign(ctx, manager, true, second.ID, AssignRequest{AssignedTo: "agent1", Override: true})
	require.NoError(t, err)
	assert.Equal(t, "agent1", overridden.AssignedTo)

	q, err := f.quotas.Get(ctx, "agent1")
	require.NoError(t, err)
	assert.Equal(t, 2, q.TodayAssigned)
}

func TestService_Assign_DailyWindowRollsOver(t *testing.T) {
	f := newFixture(t, func(r *Rules) { r.QuotaDefaults.DailyQuota = 1 })
	ctx := context.Background()
	first := f.createLead(t, "r1")
	second := f.createLead(t, "r2")

	_, err := f.svc.Assign(ctx, manager, true, first.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.Assign(ctx, manager, true, second.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)

	q, err := f.quotas.Get(ctx, "agent1")
	require.NoError(t, err)
	assert.Equal(t, 1, q.TodayAssigned)
	assert.Equal(t, 2, q.WeeklyAssigned)
}

func TestService_Assign_ConcurrentLimitCountsOpenLeads(t *testing.T) {
	f := newFixture(t, func(r *Rules) { r.QuotaDefaults.MaxConcurrent = 1 })
	ctx := context.Background()
	first := f.createLead(t, "m1")
	second := f.createLead(t, "m2")

	_, err := f.svc.Assign(ctx, manager, true, first.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, manager, true, second.ID, AssignRequest{AssignedTo: "agent1"})
	assert.ErrorIs(t, err, workflow.ErrQuotaExceeded)

	sold := "Sold"
	_, err = f.svc.Update(ctx, agent, first.ID, UpdateLeadRequest{Status: &sold, Revision: 2})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, manager, true, second.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)
}

func TestService_Assign_SameAgentDoesNotConsumeQuota(t *testing.T) {
	f := newFixture(t, func(r *Rules) { r.QuotaDefaults.DailyQuota = 1 })
	ctx := context.Background()
	l := f.createLead(t, "same")

	_, err := f.svc.Assign(ctx, manager, true, l.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, manager, true, l.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)
}

func TestService_List_FilterPaginateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "carol", "dave", "erin"} {
		f.createLead(t, name)
		f.clock.Advance(time.Minute)
	}
	bob, err := f.svc.List(ctx, ListParams{Filter: workflow.LeadFilter{Search: "BOB"}, Page: pagination.Normalize(1, 10)})
	require.NoError(t, err)
	require.Len(t, bob.Leads, 1)
	_, err = f.svc.Assign(ctx, manager, true, bob.Leads[0].ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)

	params := ListParams{Filter: workflow.LeadFilter{AssignedTo: workflow.Unassigned}, Page: pagination.Normalize(1, 3)}
	first, err := f.svc.List(ctx, params)
	require.NoError(t, err)
	again, err := f.svc.List(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, 4, first.Pagination.TotalItems)
	assert.Equal(t, 2, first.Pagination.TotalPages)
	assert.Len(t, first.Leads, 3)
	assert.Equal(t, "alice", first.Leads[0].Name)
	assert.Equal(t, "carol", first.Leads[1].Name)
}

func TestService_List_OverdueBucket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.createLead(t, "old")
	f.clock.Advance(13 * time.Hour)
	f.createLead(t, "fresh")

	res, err := f.svc.List(ctx, ListParams{Filter: workflow.LeadFilter{AgeBucket: workflow.BucketOverdue}, Page: pagination.Normalize(1, 10)})
	require.NoError(t, err)

	require.Len(t, res.Leads, 1)
	assert.Equal(t, old.ID, res.Leads[0].ID)
	assert.True(t, res.Leads[0].IsOverdue)
	assert.Equal(t, 13.0, res.Leads[0].AgeInHours)
}

func TestService_Timeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.createLead(t, "timeline")
	f.clock.Advance(time.Minute)
	_, err := f.svc.Assign(ctx, manager, true, l.ID, AssignRequest{AssignedTo: "agent1"})
	require.NoError(t, err)

	entries, err := f.svc.Timeline(ctx, l.ID)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, activity.ActionLeadCreated, entries[0].Action)
	assert.Equal(t, activity.ActionLeadAssigned, entries[1].Action)
	assert.Equal(t, "agent1", entries[1].Details["assignedTo"])
}

type mockLeadRepo struct {
	mock.Mock
	LeadRepository
}

func (m *mockLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestService_Get_RepositoryFailureIsInternal(t *testing.T) {
	leads := new(mockLeadRepo)
	leads.On("GetByID", mock.Anything, "l-1").Return(nil, errors.New("connection reset"))

	svc := NewService(Deps{Leads: leads, Tx: passthroughTx{}}, Rules{Policy: workflow.DefaultOverduePolicy()}, clock.NewFixed(start), zap.NewNop())
	_, err := svc.Get(context.Background(), "l-1")

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	leads.AssertExpectations(t)
}

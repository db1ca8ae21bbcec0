package workflow

import (
	"testing"

	"conveycrm/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleViews() []LeadView {
	p := DefaultOverduePolicy()
	leads := []domain.Lead{
		{ID: "1", Name: "Alice Smith", Email: "alice@x.com", Phone: "07700 900001", Source: domain.SourceHoowla, Status: domain.LeadNew, Stage: domain.StageNew, Priority: domain.PriorityLow, MaxAttempts: 5, CreatedAt: hoursAgo(2)},
		{ID: "2", Name: "bob jones", Email: "bob@y.com", Phone: "07700 900002", Source: domain.SourceDirect, Status: domain.LeadAssigned, Stage: domain.StageCall1, Priority: domain.PriorityHigh, AssignedTo: "agent1", ContactAttempts: 1, MaxAttempts: 5, CreatedAt: hoursAgo(30)},
		{ID: "3", Name: "Carol", Email: "carol@x.com", Phone: "07700 900003", Source: domain.SourceHoowla, Status: domain.LeadAssigned, Stage: domain.StageCall1, Priority: domain.PriorityHigh, AssignedTo: "agent2", ContactAttempts: 1, MaxAttempts: 5, CreatedAt: hoursAgo(60)},
		{ID: "4", Name: "Dave", Email: "dave@z.com", Phone: "07700 900004", Source: domain.SourceReferral, Status: domain.LeadNew, Stage: domain.StageNew, Priority: domain.PriorityMedium, MaxAttempts: 5, CreatedAt: hoursAgo(13)},
	}
	return p.Views(leads, t0)
}

func ids(views []LeadView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestFilterLeads_AndOfPredicates(t *testing.T) {
	views := sampleViews()

	assert.Equal(t, []string{"1", "3"}, ids(FilterLeads(views, LeadFilter{Source: domain.SourceHoowla})))
	assert.Equal(t, []string{"3"}, ids(FilterLeads(views, LeadFilter{Source: domain.SourceHoowla, Status: domain.LeadAssigned})))
	assert.Empty(t, FilterLeads(views, LeadFilter{Source: domain.SourceHoowla, AssignedTo: "agent1"}))
}

func TestFilterLeads_Search(t *testing.T) {
	views := sampleViews()

	assert.Equal(t, []string{"2"}, ids(FilterLeads(views, LeadFilter{Search: "BOB"})))
	assert.Equal(t, []string{"1", "3"}, ids(FilterLeads(views, LeadFilter{Search: "@x.com"})))
	assert.Equal(t, []string{"4"}, ids(FilterLeads(views, LeadFilter{Search: "900004"})))
}

func TestFilterLeads_AgeBucketAndUnassigned(t *testing.T) {
	views := sampleViews()

	assert.Equal(t, []string{"3", "4"}, ids(FilterLeads(views, LeadFilter{AgeBucket: BucketOverdue})))
	assert.Equal(t, []string{"1"}, ids(FilterLeads(views, LeadFilter{AgeBucket: BucketNew})))
	assert.Equal(t, []string{"1", "4"}, ids(FilterLeads(views, LeadFilter{AssignedTo: Unassigned})))
}

func TestFilterLeads_StableSort(t *testing.T) {
	views := sampleViews()

	byPriority := FilterLeads(views, LeadFilter{SortBy: SortPriority})
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids(byPriority))

	byAgeDesc := FilterLeads(views, LeadFilter{SortBy: SortAge, Descending: true})
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids(byAgeDesc))
}

func TestFilterLeads_Idempotent(t *testing.T) {
	views := sampleViews()
	f := LeadFilter{Status: domain.LeadAssigned, SortBy: SortName}

	first := FilterLeads(views, f)
	second := FilterLeads(views, f)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated filter differs (-first +second):\n%s", diff)
	}
}

func TestFilterLeads_NoPredicatesKeepsOrder(t *testing.T) {
	views := sampleViews()
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FilterLeads(views, LeadFilter{})))
}

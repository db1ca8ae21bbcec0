package repository

import (
	"context"
	"testing"

	"conveycrm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaRepository_Save_RevisionGuard(t *testing.T) {
	repo := NewQuotaRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.AgentQuota{Agent: "agent-1", DailyQuota: 10, DayStart: now}))

	first, err := repo.Get(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Revision)
	second, err := repo.Get(ctx, "agent-1")
	require.NoError(t, err)

	first.TodayAssigned = 1
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, 2, first.Revision)

	second.TodayAssigned = 1
	assert.ErrorIs(t, repo.Save(ctx, second), ErrConflict)

	stored, err := repo.Get(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TodayAssigned)
	assert.Equal(t, 2, stored.Revision)

	assert.ErrorIs(t, repo.Save(ctx, &domain.AgentQuota{Agent: "nobody", Revision: 1}), ErrNotFound)
}

func TestQuotaRepository_CreateIfMissing_KeepsExisting(t *testing.T) {
	repo := NewQuotaRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.AgentQuota{Agent: "agent-1", DailyQuota: 10}))

	require.NoError(t, repo.CreateIfMissing(ctx, &domain.AgentQuota{Agent: "agent-1", DailyQuota: 99}))

	q, err := repo.Get(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 10, q.DailyQuota)
}

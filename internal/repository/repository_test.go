package repository

import (
	"context"
	"testing"
	"time"

	"conveycrm/internal/database"
	"conveycrm/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func seedLead(t *testing.T, repo *LeadRepository, id string, attempts, ceiling int) *domain.Lead {
	t.Helper()
	l := &domain.Lead{
		ID: id, Name: id, Email: id + "@example.com", Phone: "1",
		Source: domain.SourceDirect, Status: domain.LeadNew, Stage: domain.StageNew, Priority: domain.PriorityMedium,
		ContactAttempts: attempts, MaxAttempts: ceiling, Revision: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), l))
	return l
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type widget struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

func TestConnect_MissingRowIsNotLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	db, err := Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	err = db.First(&widget{}, 42).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.FilterMessageSnippet("record not found").Len())

	err = db.Exec("SELECT * FROM no_such_table").Error
	assert.Error(t, err)
	assert.NotZero(t, logs.FilterMessageSnippet("no_such_table").Len())
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost/crm"))
	assert.True(t, IsPostgres("postgresql://localhost/crm"))
	assert.False(t, IsPostgres("file:crm.db"))
	assert.False(t, IsPostgres(":memory:"))
}

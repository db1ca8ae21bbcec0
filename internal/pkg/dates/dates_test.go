package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, err := Parse("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Parse("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), *got)

	got, err = Parse("2024-03-04T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC), *got)

	_, err = Parse("04/03/2024")
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	day, _ := Parse("2024-03-04")
	end := EndOfDay("2024-03-04", day)
	assert.Equal(t, time.Date(2024, 3, 4, 23, 59, 59, 999999999, time.UTC), *end)

	ts, _ := Parse("2024-03-04T10:00:00Z")
	assert.Equal(t, ts, EndOfDay("2024-03-04T10:00:00Z", ts))
}

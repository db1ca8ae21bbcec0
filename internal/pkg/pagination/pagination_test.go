package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: 10}, Normalize(0, 0))
	assert.Equal(t, Params{Page: 3, Limit: 100}, Normalize(3, 500))
	assert.Equal(t, Params{Page: 1, Limit: 10}, Normalize(-2, -5))
}

func TestSlice_TotalPagesIsCeil(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	for limit := 1; limit <= 30; limit++ {
		for page := 1; page <= 5; page++ {
			p := Normalize(page, limit)
			got, meta := Slice(items, p)

			expectedPages := (23 + limit - 1) / limit
			assert.Equal(t, expectedPages, meta.TotalPages, fmt.Sprintf("limit=%d", limit))
			assert.LessOrEqual(t, len(got), meta.ItemsPerPage)
			assert.Equal(t, 23, meta.TotalItems)
		}
	}
}

func TestSlice_LastPage(t *testing.T) {
	got, meta := Slice([]string{"a", "b", "c"}, Normalize(2, 2))
	assert.Equal(t, []string{"c"}, got)
	assert.Equal(t, Meta{CurrentPage: 2, TotalPages: 2, TotalItems: 3, ItemsPerPage: 2}, meta)
}

func TestSlice_Empty(t *testing.T) {
	got, meta := Slice([]string{}, Normalize(1, 10))
	assert.Empty(t, got)
	assert.Equal(t, 0, meta.TotalPages)
}

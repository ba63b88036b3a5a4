package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	items := []string{"x1", "x2", "x3", "x4", "x5"}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{name: "first page", limit: 2, offset: 0, want: []string{"x1", "x2"}},
		{name: "middle page", limit: 2, offset: 2, want: []string{"x3", "x4"}},
		{name: "short last page", limit: 2, offset: 4, want: []string{"x5"}},
		{name: "limit beyond end", limit: 50, offset: 3, want: []string{"x4", "x5"}},
		{name: "zero limit uses default", limit: 0, offset: 0, want: items},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(items, len(items), tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)
		})
	}
}

func TestPaginateInvalidOffset(t *testing.T) {
	items := []string{"x1", "x2", "x3", "x4", "x5"}

	_, err := Paginate(items, len(items), 2, 5)
	var invalid *InvalidOffsetError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 5, invalid.Offset)
	assert.Equal(t, 5, invalid.Total)
	assert.Equal(t, "requested starting offset 5 out of range: 5", invalid.Error())
}

func TestPaginateEmptyCollection(t *testing.T) {
	// Offset 0 against an empty collection is a valid empty page.
	page, err := Paginate([]string{}, 0, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)

	// Any positive offset against an empty collection is out of range.
	_, err = Paginate([]string{}, 0, 10, 1)
	var invalid *InvalidOffsetError
	require.ErrorAs(t, err, &invalid)
}

func TestPaginateTotalLargerThanItems(t *testing.T) {
	// Callers may paginate a pre-sliced list against a larger logical total.
	page, err := Paginate([]string{"x1"}, 10, 5, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		expr       string
		wantColumn string
		wantAsc    bool
	}{
		{expr: "", wantColumn: "created_at", wantAsc: false},
		{expr: "status", wantColumn: "status", wantAsc: true},
		{expr: "-status", wantColumn: "status", wantAsc: false},
		{expr: "-updated_at", wantColumn: "updated_at", wantAsc: false},
	}

	for _, tt := range tests {
		column, asc := ParseSort(tt.expr, "created_at", false)
		assert.Equal(t, tt.wantColumn, column, "expr %q", tt.expr)
		assert.Equal(t, tt.wantAsc, asc, "expr %q", tt.expr)
	}
}

func TestSortSystemsByName(t *testing.T) {
	systems := []remediation.RunSystem{
		{SystemName: "charlie"},
		{SystemName: "alpha"},
		{SystemName: "bravo"},
	}

	sorted := SortSystems(systems, "system_name", true)

	names := make([]string, 0, len(sorted))
	for _, s := range sorted {
		names = append(names, s.SystemName)
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func TestSortSystemsUnknownColumnFallsBack(t *testing.T) {
	systems := []remediation.RunSystem{
		{SystemName: "bravo"},
		{SystemName: "alpha"},
	}

	// Unknown column behaves exactly like system_name ascending, even when
	// the caller asked for descending order.
	sorted := SortSystems(systems, "no_such_column", false)

	require.Len(t, sorted, 2)
	assert.Equal(t, "alpha", sorted[0].SystemName)
	assert.Equal(t, "bravo", sorted[1].SystemName)
}

func TestSortSystemsStable(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	systems := []remediation.RunSystem{
		{SystemID: "s1", SystemName: "same", UpdatedAt: base},
		{SystemID: "s2", SystemName: "same", UpdatedAt: base},
		{SystemID: "s3", SystemName: "same", UpdatedAt: base},
	}

	sorted := SortSystems(systems, "system_name", true)

	assert.Equal(t, "s1", sorted[0].SystemID)
	assert.Equal(t, "s2", sorted[1].SystemID)
	assert.Equal(t, "s3", sorted[2].SystemID)
}

func TestSortRunsDefaultNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []remediation.PlaybookRun{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
		{ID: "mid", CreatedAt: base.Add(time.Minute)},
	}

	sorted := SortRuns(runs, "created_at", false)

	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "mid", sorted[1].ID)
	assert.Equal(t, "old", sorted[2].ID)
}

func TestSortRunsUnknownColumnFallsBack(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []remediation.PlaybookRun{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
	}

	sorted := SortRuns(runs, "bogus", true)

	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "old", sorted[1].ID)
}

package run

import (
	"sort"
	"strings"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// Default sort columns. Unknown columns never fail; they fall back here.
const (
	DefaultSystemSort = "system_name"
	DefaultRunSort    = "created_at"
)

// ParseSort splits a query sort expression ("-created_at") into column and
// direction.
func ParseSort(expr, defaultColumn string, defaultAsc bool) (string, bool) {
	if expr == "" {
		return defaultColumn, defaultAsc
	}
	if strings.HasPrefix(expr, "-") {
		return expr[1:], false
	}
	return expr, true
}

// SortSystems stably orders run systems by the given column. An unknown
// column falls back to system_name ascending. Stability with respect to
// merge order keeps repeated calls reproducible, which pagination relies on.
func SortSystems(systems []remediation.RunSystem, column string, asc bool) []remediation.RunSystem {
	var less func(a, b remediation.RunSystem) bool
	switch column {
	case "system_name":
		less = func(a, b remediation.RunSystem) bool { return a.SystemName < b.SystemName }
	case "status":
		less = func(a, b remediation.RunSystem) bool { return a.Status < b.Status }
	case "updated_at":
		less = func(a, b remediation.RunSystem) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		less = func(a, b remediation.RunSystem) bool { return a.SystemName < b.SystemName }
		asc = true
	}
	sortStable(systems, less, asc)
	return systems
}

// SortRuns stably orders playbook runs. An unknown column falls back to
// created_at descending, the default list ordering.
func SortRuns(runs []remediation.PlaybookRun, column string, asc bool) []remediation.PlaybookRun {
	var less func(a, b remediation.PlaybookRun) bool
	switch column {
	case "created_at":
		less = func(a, b remediation.PlaybookRun) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		less = func(a, b remediation.PlaybookRun) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "status":
		less = func(a, b remediation.PlaybookRun) bool { return a.Status < b.Status }
	default:
		less = func(a, b remediation.PlaybookRun) bool { return a.CreatedAt.Before(b.CreatedAt) }
		asc = false
	}
	sortStable(runs, less, asc)
	return runs
}

func sortStable[T any](items []T, less func(a, b T) bool, asc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})
}

package run

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// tagExecutor is the canonical serialization of one snapshot entry. Field
// order is fixed by the struct; executors and system ids are sorted before
// marshaling so two equal snapshots always digest identically.
type tagExecutor struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Systems []string `json:"systems"`
}

// ComputeTag derives the optimistic-concurrency token for a connection
// status snapshot: BLAKE3 over the canonical serialization, as a strong
// HTTP ETag.
func ComputeTag(snapshot []remediation.Executor) (string, error) {
	canonical := make([]tagExecutor, 0, len(snapshot))
	for _, e := range snapshot {
		systems := make([]string, 0, len(e.Systems))
		for _, sys := range e.Systems {
			systems = append(systems, sys.ID)
		}
		sort.Strings(systems)
		canonical = append(canonical, tagExecutor{
			ID:      e.ID,
			Name:    e.Name,
			Type:    e.Type,
			Status:  string(e.Status),
			Systems: systems,
		})
	}
	sort.Slice(canonical, func(i, j int) bool {
		return canonical[i].ID < canonical[j].ID
	})

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}
	sum := blake3.Sum256(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// ValidateTag compares a caller-supplied token against the current snapshot.
// It returns ErrPreconditionFailed when the token is absent or stale. This is
// a time-of-check guard, not a lock: concurrent callers may both pass and
// both dispatch.
func ValidateTag(supplied string, snapshot []remediation.Executor) error {
	current, err := ComputeTag(snapshot)
	if err != nil {
		return err
	}
	if supplied == "" || supplied != current {
		return ErrPreconditionFailed
	}
	return nil
}

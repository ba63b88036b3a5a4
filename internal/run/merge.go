package run

import (
	"github.com/mattjoyce/fleetfix/internal/dispatcher"
	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// CombineRuns unions store-sourced and externally-tracked runs by run id.
// On collision the store's record wins: it reflects the full lifecycle,
// including terminal states written after the external view may have gone
// stale. External-only runs are appended with their reported status
// unchanged. Linear in the combined input sizes; ordering is the sorter's
// concern.
func CombineRuns(external []dispatcher.RunRecord, storeRuns []remediation.PlaybookRun, remediationID, createdBy string) []remediation.PlaybookRun {
	merged := make([]remediation.PlaybookRun, 0, len(storeRuns)+len(external))
	seen := make(map[string]struct{}, len(storeRuns)+len(external))

	for _, run := range storeRuns {
		seen[run.ID] = struct{}{}
		merged = append(merged, run)
	}

	for _, rec := range external {
		id := rec.PlaybookRunID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, externalRun(rec, id, remediationID, createdBy))
	}

	return merged
}

// CombineHosts returns the store-sourced system list augmented with external
// hosts that have no store counterpart. Matching is by host name; on match
// the store record wins.
func CombineHosts(external []dispatcher.RunHostRecord, systems []remediation.RunSystem) []remediation.RunSystem {
	seen := make(map[string]struct{}, len(systems))
	for _, sys := range systems {
		seen[sys.SystemName] = struct{}{}
	}

	for _, host := range external {
		if _, dup := seen[host.Host]; dup {
			continue
		}
		seen[host.Host] = struct{}{}
		systems = append(systems, externalHost(host))
	}
	return systems
}

// FormatRunHosts converts externally-tracked hosts into run system records.
// Used when an executor filter empties the store-sourced list.
func FormatRunHosts(external []dispatcher.RunHostRecord) []remediation.RunSystem {
	systems := make([]remediation.RunSystem, 0, len(external))
	for _, host := range external {
		systems = append(systems, externalHost(host))
	}
	return systems
}

func externalRun(rec dispatcher.RunRecord, id, remediationID, createdBy string) remediation.PlaybookRun {
	return remediation.PlaybookRun{
		ID:            id,
		RemediationID: remediationID,
		Status:        remediation.RunStatus(rec.Status),
		CreatedBy:     createdBy,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		Source:        remediation.SourceExternal,
		Executors: []remediation.RunExecutor{{
			ID:            rec.ID,
			PlaybookRunID: id,
			ExecutorID:    rec.Recipient,
			ExecutorName:  "Direct connected",
			Status:        remediation.RunStatus(rec.Status),
			SystemCount:   1,
			UpdatedAt:     rec.UpdatedAt,
		}},
	}
}

func externalHost(host dispatcher.RunHostRecord) remediation.RunSystem {
	return remediation.RunSystem{
		ID:            host.Run.ID,
		RunExecutorID: host.Run.ID,
		SystemID:      host.Run.Recipient,
		SystemName:    host.Host,
		Status:        remediation.RunStatus(host.Status),
		Console:       host.Stdout,
		UpdatedAt:     host.Run.UpdatedAt,
		Source:        remediation.SourceExternal,
	}
}

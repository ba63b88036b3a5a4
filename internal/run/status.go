package run

import (
	"context"
	"fmt"
	"sort"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// GetConnectionStatus resolves live reachability for every executor
// referenced by the remediation's issues and groups systems under their
// executor. The result is a fresh snapshot on every call: connectivity is
// volatile, so it is never cached and never persisted. Executors are ordered
// by id so the snapshot serializes deterministically.
func (s *Service) GetConnectionStatus(ctx context.Context, rem *remediation.Remediation, account string) ([]remediation.Executor, error) {
	executors := groupByExecutor(rem)

	var recipients []string
	for _, e := range executors {
		if e.Status != remediation.ConnectionUnsupported {
			recipients = append(recipients, e.ID)
		}
	}

	if len(recipients) > 0 {
		states, err := s.client.ConnectionStatus(ctx, account, recipients)
		if err != nil {
			return nil, fmt.Errorf("resolve connection status: %w", err)
		}
		for i := range executors {
			if executors[i].Status == remediation.ConnectionUnsupported {
				continue
			}
			if state, ok := states[executors[i].ID]; ok && state == remediation.ConnectionConnected {
				executors[i].Status = remediation.ConnectionConnected
			} else {
				executors[i].Status = remediation.ConnectionDisconnected
			}
		}
	}

	return executors, nil
}

// groupByExecutor collects the remediation's systems under their executor,
// deduplicated by system id. Executors of an unknown type are marked
// unsupported up front and never queried.
func groupByExecutor(rem *remediation.Remediation) []remediation.Executor {
	index := make(map[string]*remediation.Executor)
	seen := make(map[string]map[string]struct{})

	for _, issue := range rem.Issues {
		for _, sys := range issue.Systems {
			e, ok := index[sys.ExecutorID]
			if !ok {
				status := remediation.ConnectionDisconnected
				switch sys.ExecutorType {
				case remediation.ExecutorTypeSatellite, remediation.ExecutorTypeRHC:
				default:
					status = remediation.ConnectionUnsupported
				}
				e = &remediation.Executor{
					ID:     sys.ExecutorID,
					Name:   sys.ExecutorName,
					Type:   sys.ExecutorType,
					Status: status,
				}
				index[sys.ExecutorID] = e
				seen[sys.ExecutorID] = make(map[string]struct{})
			}
			if _, dup := seen[sys.ExecutorID][sys.ID]; dup {
				continue
			}
			seen[sys.ExecutorID][sys.ID] = struct{}{}
			e.Systems = append(e.Systems, sys)
		}
	}

	executors := make([]remediation.Executor, 0, len(index))
	for _, e := range index {
		sort.Slice(e.Systems, func(i, j int) bool {
			return e.Systems[i].Hostname < e.Systems[j].Hostname
		})
		executors = append(executors, *e)
	}
	sort.Slice(executors, func(i, j int) bool {
		return executors[i].ID < executors[j].ID
	})
	return executors
}

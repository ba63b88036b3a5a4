package run

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/fleetfix/internal/dispatcher"
	"github.com/mattjoyce/fleetfix/internal/remediation"
	"github.com/mattjoyce/fleetfix/internal/store"
)

// ResponseModeDetailed asks for per-executor submission detail instead of
// the bare run id.
const ResponseModeDetailed = "detailed"

const initialConsole = "system log has started."

// CreateRequest carries everything CreatePlaybookRun needs. The snapshot
// must be the one the caller's etag was validated against.
type CreateRequest struct {
	Remediation  *remediation.Remediation
	Snapshot     []remediation.Executor
	Username     string
	Exclude      []string
	ResponseMode string
}

// ExecutorSubmission is the per-executor dispatch outcome.
type ExecutorSubmission struct {
	ExecutorID   string `json:"executor_id"`
	ExecutorName string `json:"executor_name"`
	Code         int    `json:"code"`
	Accepted     bool   `json:"accepted"`
	SystemCount  int    `json:"system_count"`
}

// CreateResult is the outcome of a playbook run creation.
type CreateResult struct {
	ID          string
	Submissions []ExecutorSubmission
}

// runPayload is the serialized work request body handed to an executor.
type runPayload struct {
	RemediationID   string        `json:"remediation_id"`
	RemediationName string        `json:"remediation_name"`
	PlaybookRunID   string        `json:"playbook_run_id"`
	Account         string        `json:"account"`
	Hosts           []string      `json:"hosts"`
	Playbook        string        `json:"playbook"`
	Config          payloadConfig `json:"config"`
}

type payloadConfig struct {
	TextUpdates        bool  `json:"text_updates"`
	TextUpdateInterval int64 `json:"text_update_interval"`
	TextUpdateFull     bool  `json:"text_update_full"`
}

// CreatePlaybookRun fans one work request out to every connected executor
// left after exclusion. Submissions are independent: one rejection neither
// aborts the others nor rolls anything back. Pending state is recorded for
// accepted submissions only.
func (s *Service) CreatePlaybookRun(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	targets := filterExcluded(req.Snapshot, req.Exclude)

	var connected []remediation.Executor
	for _, e := range targets {
		if e.Status == remediation.ConnectionConnected && len(e.Systems) > 0 {
			connected = append(connected, e)
		}
	}
	if len(connected) == 0 {
		return nil, ErrNoExecutors
	}

	playbookText, err := s.renderer.Render(ctx, req.Remediation)
	if err != nil {
		return nil, fmt.Errorf("render playbook: %w", err)
	}

	runID := uuid.NewString()
	account := req.Remediation.AccountNumber

	requests := make([]dispatcher.WorkRequest, len(connected))
	for i, e := range connected {
		payload, err := json.Marshal(runPayload{
			RemediationID:   req.Remediation.ID,
			RemediationName: req.Remediation.Name,
			PlaybookRunID:   runID,
			Account:         account,
			Hosts:           uniqueHosts(e.Systems),
			Playbook:        playbookText,
			Config: payloadConfig{
				TextUpdates:        s.updates.TextUpdates,
				TextUpdateInterval: s.updates.TextUpdateInterval.Milliseconds(),
				TextUpdateFull:     s.updates.TextUpdateFull,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("serialize work request payload: %w", err)
		}
		requests[i] = dispatcher.WorkRequest{
			Account:   account,
			Recipient: e.ID,
			Payload:   string(payload),
			Directive: dispatcher.DirectiveExecute,
		}
	}

	// Per-executor fan-out. Goroutines never return an error: a failed
	// submission is recorded as not accepted and must not cancel its peers.
	submissions := make([]ExecutorSubmission, len(connected))
	var g errgroup.Group
	for i := range connected {
		i := i
		g.Go(func() error {
			sub := ExecutorSubmission{
				ExecutorID:   connected[i].ID,
				ExecutorName: connected[i].Name,
				SystemCount:  len(connected[i].Systems),
			}
			results, err := s.client.PostPlaybookRunRequests(ctx, []dispatcher.WorkRequest{requests[i]})
			if err != nil {
				s.logger.Warn("work request submission failed",
					"playbook_run_id", runID, "executor", connected[i].ID, "error", err)
				submissions[i] = sub
				return nil
			}
			if len(results) > 0 {
				sub.Code = results[0].Code
				sub.Accepted = results[0].Code == 200
			}
			if !sub.Accepted {
				s.logger.Warn("work request rejected",
					"playbook_run_id", runID, "executor", connected[i].ID, "code", sub.Code)
			}
			submissions[i] = sub
			return nil
		})
	}
	_ = g.Wait()

	accepted := 0
	for _, sub := range submissions {
		if sub.Accepted {
			accepted++
		}
	}
	if accepted == 0 {
		return nil, fmt.Errorf("playbook run %s: every executor rejected the work request", runID)
	}

	now := time.Now().UTC()
	rec := store.RunCreation{
		Run: remediation.PlaybookRun{
			ID:            runID,
			RemediationID: req.Remediation.ID,
			Status:        remediation.RunStatusPending,
			CreatedBy:     req.Username,
			CreatedAt:     now,
			UpdatedAt:     now,
			Source:        remediation.SourceStore,
		},
	}
	for i, sub := range submissions {
		if !sub.Accepted {
			continue
		}
		execRowID := uuid.NewString()
		rec.Executors = append(rec.Executors, remediation.RunExecutor{
			ID:            execRowID,
			PlaybookRunID: runID,
			ExecutorID:    sub.ExecutorID,
			ExecutorName:  sub.ExecutorName,
			Status:        remediation.RunStatusPending,
			SystemCount:   len(connected[i].Systems),
			UpdatedAt:     now,
		})
		for _, sys := range connected[i].Systems {
			rec.Systems = append(rec.Systems, remediation.RunSystem{
				ID:            uuid.NewString(),
				RunExecutorID: execRowID,
				SystemID:      sys.ID,
				SystemName:    sys.Hostname,
				Status:        remediation.RunStatusPending,
				Sequence:      0,
				Console:       initialConsole,
				UpdatedAt:     now,
				Source:        remediation.SourceStore,
			})
		}
	}
	if err := s.store.RecordRunCreation(ctx, rec); err != nil {
		return nil, fmt.Errorf("record run state: %w", err)
	}

	s.logger.Info("playbook run created",
		"playbook_run_id", runID,
		"remediation_id", req.Remediation.ID,
		"executors", len(connected),
		"accepted", accepted)

	return &CreateResult{ID: runID, Submissions: submissions}, nil
}

// filterExcluded drops executors and systems the caller opted out of.
// Entries match either an executor id or a system id. Executors left with no
// systems drop out entirely.
func filterExcluded(snapshot []remediation.Executor, exclude []string) []remediation.Executor {
	if len(exclude) == 0 {
		return snapshot
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var out []remediation.Executor
	for _, e := range snapshot {
		if _, skip := excluded[e.ID]; skip {
			continue
		}
		kept := e
		kept.Systems = nil
		for _, sys := range e.Systems {
			if _, skip := excluded[sys.ID]; skip {
				continue
			}
			kept.Systems = append(kept.Systems, sys)
		}
		if len(kept.Systems) == 0 {
			continue
		}
		out = append(out, kept)
	}
	return out
}

// uniqueHosts deduplicates hostnames and orders them lexicographically so
// replayed work requests are comparable.
func uniqueHosts(systems []remediation.System) []string {
	seen := make(map[string]struct{}, len(systems))
	hosts := make([]string, 0, len(systems))
	for _, sys := range systems {
		if _, dup := seen[sys.Hostname]; dup {
			continue
		}
		seen[sys.Hostname] = struct{}{}
		hosts = append(hosts, sys.Hostname)
	}
	sort.Strings(hosts)
	return hosts
}

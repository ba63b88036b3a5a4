package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/fleetfix/internal/config"
	"github.com/mattjoyce/fleetfix/internal/dispatcher"
	"github.com/mattjoyce/fleetfix/internal/log"
	"github.com/mattjoyce/fleetfix/internal/playbook"
	"github.com/mattjoyce/fleetfix/internal/remediation"
	"github.com/mattjoyce/fleetfix/internal/store"
)

// Service is the run dispatch and status-aggregation engine. It owns no
// cross-request state; every method operates on freshly fetched data.
type Service struct {
	store    store.Store
	client   dispatcher.Client
	renderer playbook.Renderer
	updates  config.PlaybookConfig
	logger   *slog.Logger
}

// NewService wires the engine to its collaborators.
func NewService(st store.Store, client dispatcher.Client, renderer playbook.Renderer, updates config.PlaybookConfig) *Service {
	return &Service{
		store:    st,
		client:   client,
		renderer: renderer,
		updates:  updates,
		logger:   log.WithComponent("run"),
	}
}

// ListRuns returns the merged, sorted run list for a remediation. The store
// query and the external fetch run concurrently; the merge happens once both
// complete. A failing external source degrades to store-only data rather
// than failing the request.
func (s *Service) ListRuns(ctx context.Context, remediationID, account, username, column string, asc bool) ([]remediation.PlaybookRun, error) {
	var (
		rem       *remediation.Remediation
		storeRuns []remediation.PlaybookRun
		external  []dispatcher.RunRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rem, err = s.store.Get(gctx, remediationID, account, username)
		return err
	})
	g.Go(func() error {
		var err error
		storeRuns, err = s.store.GetPlaybookRuns(gctx, remediationID, account, username)
		return err
	})
	g.Go(func() error {
		resp, err := s.client.FetchPlaybookRuns(gctx, dispatcher.NoFilter())
		if err != nil {
			s.logger.Warn("external run fetch failed, using store only", "error", err)
			return nil
		}
		external = resp.Data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	if rem == nil && len(external) == 0 {
		return nil, ErrNotFound
	}

	merged := CombineRuns(external, storeRuns, remediationID, username)
	return SortRuns(merged, column, asc), nil
}

// RunDetails returns a single run, preferring the store record over the
// externally-tracked one.
func (s *Service) RunDetails(ctx context.Context, remediationID, runID, account, username string) (*remediation.PlaybookRun, error) {
	var (
		storeRun *remediation.PlaybookRun
		external []dispatcher.RunRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		storeRun, err = s.store.GetRunDetails(gctx, remediationID, runID, account, username)
		return err
	})
	g.Go(func() error {
		resp, err := s.client.FetchPlaybookRuns(gctx, dispatcher.ByCorrelationLabel(runID))
		if err != nil {
			s.logger.Warn("external run fetch failed, using store only", "error", err)
			return nil
		}
		external = resp.Data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run details: %w", err)
	}

	if storeRun != nil {
		return storeRun, nil
	}
	for _, rec := range external {
		if rec.PlaybookRunID() == runID {
			run := externalRun(rec, runID, remediationID, username)
			return &run, nil
		}
	}
	return nil, ErrNotFound
}

// Systems returns the merged system list for a run. Known limitation,
// preserved on purpose: a host-name filter matches store-sourced systems
// only; externally-tracked hosts are not searched by it.
func (s *Service) Systems(ctx context.Context, q store.SystemsQuery) ([]remediation.RunSystem, error) {
	var (
		systems []remediation.RunSystem
		hosts   []dispatcher.RunHostRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		systems, err = s.store.GetSystems(gctx, q)
		return err
	})
	g.Go(func() error {
		resp, err := s.client.FetchPlaybookRunHosts(gctx, dispatcher.ByRunID(q.RunID))
		if err != nil {
			s.logger.Warn("external host fetch failed, using store only", "error", err)
			return nil
		}
		hosts = resp.Data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}

	if q.AnsibleHost == "" && len(hosts) > 0 {
		if q.ExecutorID != "" && len(systems) == 0 {
			systems = FormatRunHosts(hosts)
		}
		if q.ExecutorID == "" {
			systems = CombineHosts(hosts, systems)
		}
	}

	if len(systems) == 0 {
		if _, err := s.RunDetails(ctx, q.RemediationID, q.RunID, q.Account, q.Username); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}
	return systems, nil
}

// SystemDetails returns one system of a run, falling back to the external
// source when the store has no record.
func (s *Service) SystemDetails(ctx context.Context, remediationID, runID, systemID, account, username string) (*remediation.RunSystem, error) {
	sys, err := s.store.GetSystemDetails(ctx, remediationID, runID, systemID, account, username)
	if err != nil {
		return nil, fmt.Errorf("system details: %w", err)
	}
	if sys != nil {
		return sys, nil
	}

	resp, err := s.client.FetchPlaybookRunHosts(ctx, dispatcher.ByRunID(runID))
	if err != nil {
		return nil, fmt.Errorf("system details: external fetch: %w", err)
	}
	for _, host := range resp.Data {
		if host.Run.Recipient == systemID || host.Host == systemID {
			external := externalHost(host)
			return &external, nil
		}
	}
	return nil, ErrNotFound
}

// RunningExecutors resolves the executors of a run still in a non-terminal
// state. An empty result means the caller must report not-found before any
// cancellation is attempted.
func (s *Service) RunningExecutors(ctx context.Context, remediationID, runID, account, username string) ([]remediation.RunExecutor, error) {
	return s.store.GetRunningExecutors(ctx, remediationID, runID, account, username)
}

// Remediation loads the remediation record, or ErrNotFound.
func (s *Service) Remediation(ctx context.Context, remediationID, account, username string) (*remediation.Remediation, error) {
	rem, err := s.store.Get(ctx, remediationID, account, username)
	if err != nil {
		return nil, fmt.Errorf("load remediation: %w", err)
	}
	if rem == nil {
		return nil, ErrNotFound
	}
	return rem, nil
}

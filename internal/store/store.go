package store

import (
	"context"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// Store is the persistence query layer the core depends on. All methods
// return plain, fully-materialized records; lookups that find nothing return
// (nil, nil) rather than an error.
type Store interface {
	// Get loads a remediation with its issues and systems, scoped to the
	// owning account.
	Get(ctx context.Context, remediationID, account, username string) (*remediation.Remediation, error)

	// GetRunningExecutors returns the executors of a run that are still in a
	// non-terminal state.
	GetRunningExecutors(ctx context.Context, remediationID, runID, account, username string) ([]remediation.RunExecutor, error)

	// GetPlaybookRuns returns the runs of a remediation ordered by
	// created_at descending.
	GetPlaybookRuns(ctx context.Context, remediationID, account, username string) ([]remediation.PlaybookRun, error)

	// GetRunDetails returns a single run with its executors.
	GetRunDetails(ctx context.Context, remediationID, runID, account, username string) (*remediation.PlaybookRun, error)

	// GetSystems returns the systems of a run, optionally narrowed to one
	// executor and/or a host name substring.
	GetSystems(ctx context.Context, q SystemsQuery) ([]remediation.RunSystem, error)

	// GetSystemDetails returns a single run system including console output.
	GetSystemDetails(ctx context.Context, remediationID, runID, systemID, account, username string) (*remediation.RunSystem, error)

	// RecordRunCreation persists a freshly dispatched run: the run row, one
	// sub-run row per accepted executor and one row per targeted system.
	RecordRunCreation(ctx context.Context, rec RunCreation) error
}

// SystemsQuery narrows GetSystems.
type SystemsQuery struct {
	RemediationID string
	RunID         string
	ExecutorID    string
	AnsibleHost   string
	Account       string
	Username      string
}

// RunCreation is the unit of state recorded after dispatch. Executors and
// Systems contain only rows for accepted submissions.
type RunCreation struct {
	Run       remediation.PlaybookRun
	Executors []remediation.RunExecutor
	Systems   []remediation.RunSystem
}

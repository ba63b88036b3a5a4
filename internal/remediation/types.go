package remediation

import "time"

// ConnectionState is the live reachability of an executor. It is never
// persisted; it only exists inside a connection status snapshot.
type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionUnsupported  ConnectionState = "unsupported"
)

// RunStatus is the lifecycle state of a playbook run, a sub-run or a single
// system within a run.
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusSuccess  RunStatus = "success"
	RunStatusFailure  RunStatus = "failure"
	RunStatusCanceled RunStatus = "canceled"
	RunStatusTimeout  RunStatus = "timeout"
)

// Terminal reports whether the status can no longer change.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailure, RunStatusCanceled, RunStatusTimeout:
		return true
	}
	return false
}

// Source tags where a run/host record was read from.
type Source string

const (
	SourceStore    Source = "store"
	SourceExternal Source = "external"
)

// Executor types. Anything else is reported as connection_status
// "unsupported" and never dispatched to.
const (
	ExecutorTypeSatellite = "satellite"
	ExecutorTypeRHC       = "rhc"
)

// Remediation is a named, account-owned plan of issues to fix. Identity is
// immutable; name and timestamps are owned by the store.
type Remediation struct {
	ID            string
	Name          string
	AccountNumber string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Issues        []Issue
}

// Issue is a single problem with a chosen resolution, affecting a set of
// systems. Read-only from the core's perspective.
type Issue struct {
	ID         string
	Resolution string
	Systems    []System
}

// System is a managed host referenced by an issue. The executor binding is
// resolved by the store when the remediation is loaded.
type System struct {
	ID           string
	Hostname     string
	DisplayName  string
	ExecutorID   string
	ExecutorName string
	ExecutorType string
}

// Executor is a remote agent able to run a playbook against its systems,
// annotated with live reachability. A slice of these is the connection
// status snapshot.
type Executor struct {
	ID      string
	Name    string
	Type    string
	Status  ConnectionState
	Systems []System
}

// PlaybookRun is one dispatch of a remediation playbook across executors.
type PlaybookRun struct {
	ID            string
	RemediationID string
	Status        RunStatus
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Source        Source
	Executors     []RunExecutor
}

// RunExecutor is the per-executor sub-run of a playbook run.
type RunExecutor struct {
	ID            string
	PlaybookRunID string
	ExecutorID    string
	ExecutorName  string
	Status        RunStatus
	SystemCount   int
	UpdatedAt     time.Time
}

// RunSystem is the per-system execution record within a sub-run. Sequence is
// a monotonically increasing console output counter.
type RunSystem struct {
	ID            string
	RunExecutorID string
	SystemID      string
	SystemName    string
	Status        RunStatus
	Sequence      int
	Console       string
	UpdatedAt     time.Time
	Source        Source
}

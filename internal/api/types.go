package api

import (
	"time"

	"github.com/mattjoyce/fleetfix/internal/run"
)

// Meta carries collection counts for list envelopes.
type Meta struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse reports service liveness.
type HealthzResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	DispatcherOnline bool   `json:"dispatcher_online"`
}

// ExecutorStatusView is one row of the connection status body.
type ExecutorStatusView struct {
	ExecutorID       string `json:"executor_id"`
	ExecutorType     string `json:"executor_type"`
	ExecutorName     string `json:"executor_name"`
	SystemCount      int    `json:"system_count"`
	ConnectionStatus string `json:"connection_status"`
}

// ConnectionStatusResponse is the connection status envelope.
type ConnectionStatusResponse struct {
	Meta Meta                 `json:"meta"`
	Data []ExecutorStatusView `json:"data"`
}

// CreateRunRequest is the create-run body. Exclude lists executor or system
// ids to leave out of the dispatch.
type CreateRunRequest struct {
	Exclude      []string `json:"exclude,omitempty"`
	ResponseMode string   `json:"response_mode,omitempty"`
}

// CreatedResponse is the bare create-run result.
type CreatedResponse struct {
	ID string `json:"id"`
}

// CreatedDetailedResponse carries per-executor acceptance detail, returned
// when response_mode=detailed.
type CreatedDetailedResponse struct {
	ID        string                   `json:"id"`
	Executors []run.ExecutorSubmission `json:"executors"`
}

// RunExecutorView is the sub-run summary inside a run view.
type RunExecutorView struct {
	ExecutorID   string    `json:"executor_id"`
	ExecutorName string    `json:"executor_name"`
	Status       string    `json:"status"`
	SystemCount  int       `json:"system_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunView is one playbook run as presented to callers.
type RunView struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	CreatedBy string            `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Executors []RunExecutorView `json:"executors"`
}

// RunListResponse is the paginated run list envelope.
type RunListResponse struct {
	Meta Meta      `json:"meta"`
	Data []RunView `json:"data"`
}

// SystemView is one run system in a list.
type SystemView struct {
	SystemID   string    `json:"system_id"`
	SystemName string    `json:"system_name"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SystemListResponse is the paginated system list envelope.
type SystemListResponse struct {
	Meta Meta         `json:"meta"`
	Data []SystemView `json:"data"`
}

// SystemDetailsView adds console output to the system view.
type SystemDetailsView struct {
	SystemID   string    `json:"system_id"`
	SystemName string    `json:"system_name"`
	Status     string    `json:"status"`
	Sequence   int       `json:"sequence"`
	Console    string    `json:"console"`
	UpdatedAt  time.Time `json:"updated_at"`
}

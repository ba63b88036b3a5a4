package dispatcher

import (
	"context"
	"time"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// CorrelationLabel is the label key linking a dispatched work item back to
// the playbook run that originated it.
const CorrelationLabel = "playbook-run"

// DirectiveExecute instructs a satellite receptor to execute the payload.
const DirectiveExecute = "receptor_satellite:execute"

// DirectiveCancel instructs a satellite receptor to cancel a running playbook.
const DirectiveCancel = "receptor_satellite:cancel"

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/mattjoyce/fleetfix/internal/dispatcher Client

// Client is the capability used to submit work to remote executors and to
// read externally-tracked run state. Implementations must preserve request
// order in PostPlaybookRunRequests results.
type Client interface {
	// PostPlaybookRunRequests submits work requests and returns one result
	// per request, in input order. Code 200 denotes acceptance.
	PostPlaybookRunRequests(ctx context.Context, requests []WorkRequest) ([]DispatchResult, error)

	// FetchPlaybookRuns returns externally-tracked runs. With a correlation
	// label filter, at most one matching run is returned.
	FetchPlaybookRuns(ctx context.Context, filter Filter) (*RunsResponse, error)

	// FetchPlaybookRunHosts returns per-host state. With a run-id filter,
	// only hosts of that run are returned.
	FetchPlaybookRunHosts(ctx context.Context, filter Filter) (*RunHostsResponse, error)

	// PostCancel issues best-effort cancel instructions. An error covers
	// transport failure only, never the eventual cancel outcome.
	PostCancel(ctx context.Context, requests []CancelRequest) error

	// ConnectionStatus resolves live reachability for the given recipients.
	ConnectionStatus(ctx context.Context, account string, recipients []string) (map[string]remediation.ConnectionState, error)

	// Ping is a liveness probe. No payload, no side effects.
	Ping(ctx context.Context) error
}

// WorkRequest is the unit of dispatch sent to a single executor.
type WorkRequest struct {
	Account   string `json:"account"`
	Recipient string `json:"recipient"`
	Payload   string `json:"payload"`
	Directive string `json:"directive"`
}

// DispatchResult is the per-request submission outcome.
type DispatchResult struct {
	Code int    `json:"code"`
	ID   string `json:"id"`
}

// CancelRequest asks one executor to abandon a run.
type CancelRequest struct {
	Account   string `json:"account"`
	Recipient string `json:"recipient"`
	RunID     string `json:"run_id"`
}

// RunRecord is an externally-tracked playbook run.
type RunRecord struct {
	ID            string            `json:"id"`
	Account       string            `json:"account"`
	Recipient     string            `json:"recipient"`
	CorrelationID string            `json:"correlation_id"`
	URL           string            `json:"url"`
	Labels        map[string]string `json:"labels"`
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// PlaybookRunID returns the correlation label value, or "" when unlabeled.
func (r RunRecord) PlaybookRunID() string {
	return r.Labels[CorrelationLabel]
}

// RunHostRecord is the externally-tracked state of one host within a run.
type RunHostRecord struct {
	Host   string    `json:"host"`
	Run    RunRecord `json:"run"`
	Status string    `json:"status"`
	Stdout string    `json:"stdout"`
}

// Meta carries collection counts.
type Meta struct {
	Count int `json:"count"`
}

// RunsResponse is the envelope returned by FetchPlaybookRuns.
type RunsResponse struct {
	Meta Meta        `json:"meta"`
	Data []RunRecord `json:"data"`
}

// RunHostsResponse is the envelope returned by FetchPlaybookRunHosts.
type RunHostsResponse struct {
	Meta Meta            `json:"meta"`
	Data []RunHostRecord `json:"data"`
}

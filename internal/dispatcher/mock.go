package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// Mock is the reference in-memory dispatcher. Every recipient is reported
// connected, every submission is accepted, and the read paths serve a fixed
// set of externally-tracked runs. Selected with dispatcher.mock in config;
// also backs the API tests.
type Mock struct {
	Runs  map[string]RunRecord     // keyed by recipient
	Hosts map[string]RunHostRecord // keyed by external run id
}

// NewMock creates a mock dispatcher preloaded with the reference fixtures.
func NewMock() *Mock {
	created := time.Date(2018, 10, 4, 8, 19, 36, 641000000, time.UTC)

	runA := RunRecord{
		ID:            "8e015e92-02bd-4df1-80c5-3a00b93c4a4a",
		Account:       "654321",
		Recipient:     "9574cba7-b9ce-4725-b392-e959afd3e69a",
		CorrelationID: "5c9ae28b-1728-4067-b1f3-f4ad992a8296",
		Labels:        map[string]string{CorrelationLabel: "88d0ba73-0015-4e7d-a6d6-4b530cbfb5bc"},
		Status:        "running",
		Service:       "remediations",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	runB := RunRecord{
		ID:            "9ce94170-34a0-4aa6-976a-9728aa4da7a4",
		Account:       "654321",
		Recipient:     "750c60ee-b67e-4ccd-8d7f-cb8aed2bdbf4",
		CorrelationID: "1b4244aa-2572-4067-bf44-ad4e5bfaafc4",
		Labels:        map[string]string{CorrelationLabel: "31a70e85-378a-4436-96e9-677cd6fba660"},
		Status:        "running",
		Service:       "remediations",
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	return &Mock{
		Runs: map[string]RunRecord{
			runA.Recipient: runA,
			runB.Recipient: runB,
		},
		Hosts: map[string]RunHostRecord{
			runA.ID: {Host: "localhost", Run: runA, Status: "running", Stdout: "console log goes here"},
			runB.ID: {Host: "localhost", Run: runB, Status: "running", Stdout: "console log goes here"},
		},
	}
}

func (m *Mock) PostPlaybookRunRequests(_ context.Context, requests []WorkRequest) ([]DispatchResult, error) {
	results := make([]DispatchResult, 0, len(requests))
	for range requests {
		results = append(results, DispatchResult{Code: 200, ID: uuid.NewString()})
	}
	return results, nil
}

func (m *Mock) FetchPlaybookRuns(_ context.Context, filter Filter) (*RunsResponse, error) {
	if filter.Kind() == FilterByCorrelationLabel {
		for _, run := range m.Runs {
			if run.PlaybookRunID() == filter.ID() {
				return &RunsResponse{Meta: Meta{Count: 1}, Data: []RunRecord{run}}, nil
			}
		}
		return &RunsResponse{}, nil
	}

	resp := &RunsResponse{}
	for _, run := range m.Runs {
		resp.Data = append(resp.Data, run)
	}
	resp.Meta.Count = len(resp.Data)
	return resp, nil
}

func (m *Mock) FetchPlaybookRunHosts(_ context.Context, filter Filter) (*RunHostsResponse, error) {
	if filter.Kind() == FilterByRunID {
		if host, ok := m.Hosts[filter.ID()]; ok {
			return &RunHostsResponse{Meta: Meta{Count: 1}, Data: []RunHostRecord{host}}, nil
		}
		return &RunHostsResponse{}, nil
	}

	resp := &RunHostsResponse{}
	for _, host := range m.Hosts {
		resp.Data = append(resp.Data, host)
	}
	resp.Meta.Count = len(resp.Data)
	return resp, nil
}

func (m *Mock) PostCancel(context.Context, []CancelRequest) error {
	return nil
}

func (m *Mock) ConnectionStatus(_ context.Context, _ string, recipients []string) (map[string]remediation.ConnectionState, error) {
	states := make(map[string]remediation.ConnectionState, len(recipients))
	for _, r := range recipients {
		states[r] = remediation.ConnectionConnected
	}
	return states, nil
}

func (m *Mock) Ping(context.Context) error {
	return nil
}

var _ Client = (*Mock)(nil)

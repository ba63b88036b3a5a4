package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// HTTPClient talks to a playbook dispatcher service over HTTP. Dispatch and
// cancel use the internal PSK-protected surface; run and host reads use the
// public one.
type HTTPClient struct {
	baseURL string
	psk     string
	http    *http.Client
}

// NewHTTPClient creates a dispatcher client for the given base URL.
func NewHTTPClient(baseURL, psk string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		psk:     psk,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) PostPlaybookRunRequests(ctx context.Context, requests []WorkRequest) ([]DispatchResult, error) {
	var results []DispatchResult
	if err := c.do(ctx, http.MethodPost, "/internal/dispatch", nil, requests, &results); err != nil {
		return nil, err
	}
	if len(results) != len(requests) {
		return nil, fmt.Errorf("dispatcher returned %d results for %d requests", len(results), len(requests))
	}
	return results, nil
}

func (c *HTTPClient) FetchPlaybookRuns(ctx context.Context, filter Filter) (*RunsResponse, error) {
	q := url.Values{}
	if filter.Kind() == FilterByCorrelationLabel {
		q.Set("filter[labels][playbook-run]", filter.ID())
	}
	var resp RunsResponse
	if err := c.do(ctx, http.MethodGet, "/api/playbook-dispatcher/v1/runs", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) FetchPlaybookRunHosts(ctx context.Context, filter Filter) (*RunHostsResponse, error) {
	q := url.Values{}
	if filter.Kind() == FilterByRunID {
		q.Set("filter[run][id]", filter.ID())
	}
	var resp RunHostsResponse
	if err := c.do(ctx, http.MethodGet, "/api/playbook-dispatcher/v1/run_hosts", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) PostCancel(ctx context.Context, requests []CancelRequest) error {
	return c.do(ctx, http.MethodPost, "/internal/v2/cancel", nil, requests, nil)
}

func (c *HTTPClient) ConnectionStatus(ctx context.Context, account string, recipients []string) (map[string]remediation.ConnectionState, error) {
	body := struct {
		Account string   `json:"account"`
		Nodes   []string `json:"nodes"`
	}{Account: account, Nodes: recipients}

	var resp struct {
		Connections []struct {
			Recipient string `json:"recipient"`
			Status    string `json:"status"`
		} `json:"connections"`
	}
	if err := c.do(ctx, http.MethodPost, "/internal/connection_status", nil, body, &resp); err != nil {
		return nil, err
	}

	states := make(map[string]remediation.ConnectionState, len(resp.Connections))
	for _, conn := range resp.Connections {
		states[conn.Recipient] = remediation.ConnectionState(conn.Status)
	}
	return states, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.psk != "" {
		req.Header.Set("Authorization", "PSK "+c.psk)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)

package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/fleetfix/internal/auth"
	"github.com/mattjoyce/fleetfix/internal/events"
	"github.com/mattjoyce/fleetfix/internal/remediation"
	"github.com/mattjoyce/fleetfix/internal/run"
	"github.com/mattjoyce/fleetfix/internal/store"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	online := s.pinger.Ping(r.Context()) == nil
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:           "ok",
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		DispatcherOnline: online,
	})
}

// handleConnectionStatus handles GET /api/v1/remediations/{id}/connection_status.
// The ETag header carries the concurrency token a later create-run call must
// echo back via If-Match.
func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	rem, err := s.runs.Remediation(r.Context(), chi.URLParam(r, "id"), principal.Account, principal.Username)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !principal.HasEntitlement(auth.EntitlementSmartManagement) {
		s.writeError(w, http.StatusForbidden, "smart management entitlement required")
		return
	}

	snapshot, err := s.runs.GetConnectionStatus(r.Context(), rem, principal.Account)
	if err != nil {
		s.logger.Error("connection status failed", "remediation_id", rem.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to resolve connection status")
		return
	}

	tag, err := run.ComputeTag(snapshot)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to compute etag")
		return
	}
	w.Header().Set("ETag", tag)
	respondJSON(w, http.StatusOK, formatConnectionStatus(snapshot))
}

// handleCreateRun handles POST /api/v1/remediations/{id}/playbook_runs.
// The snapshot is recomputed and the If-Match token validated before any
// work request is built; a stale token means the caller acted on a
// connectivity view it has not seen.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	rem, err := s.runs.Remediation(r.Context(), chi.URLParam(r, "id"), principal.Account, principal.Username)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !principal.HasEntitlement(auth.EntitlementSmartManagement) {
		s.writeError(w, http.StatusForbidden, "smart management entitlement required")
		return
	}

	snapshot, err := s.runs.GetConnectionStatus(r.Context(), rem, principal.Account)
	if err != nil {
		s.logger.Error("connection status failed", "remediation_id", rem.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to resolve connection status")
		return
	}

	tag, err := run.ComputeTag(snapshot)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to compute etag")
		return
	}
	w.Header().Set("ETag", tag)

	if err := run.ValidateTag(r.Header.Get("If-Match"), snapshot); err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req CreateRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	result, err := s.runs.CreatePlaybookRun(r.Context(), run.CreateRequest{
		Remediation:  rem,
		Snapshot:     snapshot,
		Username:     principal.Username,
		Exclude:      req.Exclude,
		ResponseMode: req.ResponseMode,
	})
	if err != nil {
		if errors.Is(err, run.ErrNoExecutors) {
			s.writeError(w, http.StatusBadRequest, "no connected executors available for the remediation")
			return
		}
		s.logger.Error("create playbook run failed", "remediation_id", rem.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create playbook run")
		return
	}

	s.events.Publish(events.TypeRunCreated, map[string]any{
		"playbook_run_id": result.ID,
		"remediation_id":  rem.ID,
		"created_by":      principal.Username,
	})

	if req.ResponseMode == run.ResponseModeDetailed {
		respondJSON(w, http.StatusCreated, CreatedDetailedResponse{ID: result.ID, Executors: result.Submissions})
		return
	}
	respondJSON(w, http.StatusCreated, CreatedResponse{ID: result.ID})
}

// handleCancelRun handles POST .../playbook_runs/{run_id}/cancel. A run with
// no executors left in a non-terminal state is reported not-found; the
// coordinator itself never searches.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	remediationID := chi.URLParam(r, "id")
	runID := chi.URLParam(r, "run_id")

	executors, err := s.runs.RunningExecutors(r.Context(), remediationID, runID, principal.Account, principal.Username)
	if err != nil {
		s.logger.Error("resolve running executors failed", "playbook_run_id", runID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to resolve running executors")
		return
	}
	if len(executors) == 0 {
		s.writeError(w, http.StatusNotFound, "playbook run not found")
		return
	}

	s.runs.CancelPlaybookRun(r.Context(), principal.Account, runID, executors)

	s.events.Publish(events.TypeRunCanceled, map[string]any{
		"playbook_run_id": runID,
		"remediation_id":  remediationID,
	})

	respondJSON(w, http.StatusAccepted, struct{}{})
}

// handleListRuns handles GET .../playbook_runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	column, asc := run.ParseSort(r.URL.Query().Get("sort"), run.DefaultRunSort, false)
	limit, offset, err := parsePagination(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.runs.ListRuns(r.Context(), chi.URLParam(r, "id"), principal.Account, principal.Username, column, asc)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	total := len(runs)
	page, err := run.Paginate(runs, total, limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := RunListResponse{
		Meta: Meta{Count: len(page), Total: total},
		Data: make([]RunView, 0, len(page)),
	}
	for _, pr := range page {
		resp.Data = append(resp.Data, runView(pr))
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleRunDetails handles GET .../playbook_runs/{run_id}.
func (s *Server) handleRunDetails(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	pr, err := s.runs.RunDetails(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "run_id"),
		principal.Account, principal.Username)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, runView(*pr))
}

// handleListSystems handles GET .../playbook_runs/{run_id}/systems.
func (s *Server) handleListSystems(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	column, asc := run.ParseSort(r.URL.Query().Get("sort"), run.DefaultSystemSort, true)
	limit, offset, err := parsePagination(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	systems, err := s.runs.Systems(r.Context(), store.SystemsQuery{
		RemediationID: chi.URLParam(r, "id"),
		RunID:         chi.URLParam(r, "run_id"),
		ExecutorID:    r.URL.Query().Get("executor"),
		AnsibleHost:   r.URL.Query().Get("ansible_host"),
		Account:       principal.Account,
		Username:      principal.Username,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	systems = run.SortSystems(systems, column, asc)

	total := len(systems)
	page, err := run.Paginate(systems, total, limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := SystemListResponse{
		Meta: Meta{Count: len(page), Total: total},
		Data: make([]SystemView, 0, len(page)),
	}
	for _, sys := range page {
		resp.Data = append(resp.Data, SystemView{
			SystemID:   sys.SystemID,
			SystemName: sys.SystemName,
			Status:     string(sys.Status),
			UpdatedAt:  sys.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSystemDetails handles GET .../systems/{system_id}. The ETag header
// digests the formatted body so clients can poll console output cheaply.
func (s *Server) handleSystemDetails(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	sys, err := s.runs.SystemDetails(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "run_id"),
		chi.URLParam(r, "system_id"), principal.Account, principal.Username)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	view := SystemDetailsView{
		SystemID:   sys.SystemID,
		SystemName: sys.SystemName,
		Status:     string(sys.Status),
		Sequence:   sys.Sequence,
		Console:    sys.Console,
		UpdatedAt:  sys.UpdatedAt,
	}
	if body, err := json.Marshal(view); err == nil {
		w.Header().Set("ETag", bodyTag(body))
	}
	respondJSON(w, http.StatusOK, view)
}

// formatConnectionStatus shapes a snapshot for the status endpoint, ordered
// by executor name.
func formatConnectionStatus(snapshot []remediation.Executor) ConnectionStatusResponse {
	data := make([]ExecutorStatusView, 0, len(snapshot))
	for _, e := range snapshot {
		data = append(data, ExecutorStatusView{
			ExecutorID:       e.ID,
			ExecutorType:     e.Type,
			ExecutorName:     e.Name,
			SystemCount:      len(e.Systems),
			ConnectionStatus: string(e.Status),
		})
	}
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].ExecutorName < data[j].ExecutorName
	})
	return ConnectionStatusResponse{
		Meta: Meta{Count: len(data), Total: len(data)},
		Data: data,
	}
}

func runView(pr remediation.PlaybookRun) RunView {
	view := RunView{
		ID:        pr.ID,
		Status:    string(pr.Status),
		CreatedBy: pr.CreatedBy,
		CreatedAt: pr.CreatedAt,
		UpdatedAt: pr.UpdatedAt,
		Executors: make([]RunExecutorView, 0, len(pr.Executors)),
	}
	for _, e := range pr.Executors {
		view.Executors = append(view.Executors, RunExecutorView{
			ExecutorID:   e.ExecutorID,
			ExecutorName: e.ExecutorName,
			Status:       string(e.Status),
			SystemCount:  e.SystemCount,
			UpdatedAt:    e.UpdatedAt,
		})
	}
	return view
}

// parsePagination reads limit/offset query params, applying defaults when
// absent.
func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = run.DefaultLimit
	offset = run.DefaultOffset
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// bodyTag derives a strong ETag from a response body.
func bodyTag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// writeDomainError maps core error taxonomy to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var invalidOffset *run.InvalidOffsetError
	switch {
	case errors.Is(err, run.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, run.ErrForbidden):
		s.writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, run.ErrPreconditionFailed):
		s.writeError(w, http.StatusPreconditionFailed, "etag mismatch")
	case errors.As(err, &invalidOffset):
		s.writeError(w, http.StatusBadRequest, invalidOffset.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// respondJSON is a helper to write JSON responses.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

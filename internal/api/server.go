package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/fleetfix/internal/auth"
	"github.com/mattjoyce/fleetfix/internal/config"
	"github.com/mattjoyce/fleetfix/internal/events"
	"github.com/mattjoyce/fleetfix/internal/remediation"
	"github.com/mattjoyce/fleetfix/internal/run"
	"github.com/mattjoyce/fleetfix/internal/store"
)

// RunService is the core engine surface the API depends on.
type RunService interface {
	Remediation(ctx context.Context, remediationID, account, username string) (*remediation.Remediation, error)
	GetConnectionStatus(ctx context.Context, rem *remediation.Remediation, account string) ([]remediation.Executor, error)
	CreatePlaybookRun(ctx context.Context, req run.CreateRequest) (*run.CreateResult, error)
	CancelPlaybookRun(ctx context.Context, account, runID string, executors []remediation.RunExecutor)
	RunningExecutors(ctx context.Context, remediationID, runID, account, username string) ([]remediation.RunExecutor, error)
	ListRuns(ctx context.Context, remediationID, account, username, column string, asc bool) ([]remediation.PlaybookRun, error)
	RunDetails(ctx context.Context, remediationID, runID, account, username string) (*remediation.PlaybookRun, error)
	Systems(ctx context.Context, q store.SystemsQuery) ([]remediation.RunSystem, error)
	SystemDetails(ctx context.Context, remediationID, runID, systemID, account, username string) (*remediation.RunSystem, error)
}

// Pinger is the dispatcher liveness probe used by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds API server configuration.
type Config struct {
	Listen string
	Tokens []config.APIToken
}

// Server is the HTTP API server.
type Server struct {
	config    Config
	runs      RunService
	pinger    Pinger
	events    *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance.
func New(cfg Config, runs RunService, pinger Pinger, hub *events.Hub, logger *slog.Logger) *Server {
	if hub == nil {
		hub = events.NewHub(256)
	}
	return &Server{
		config:    cfg,
		runs:      runs,
		pinger:    pinger,
		events:    hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Events exposes the lifecycle event hub.
func (s *Server) Events() *events.Hub {
	return s.events
}

// Start starts the HTTP server (blocking until ctx is cancelled).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/events", s.handleEvents)

		r.Route("/api/v1/remediations/{id}", func(r chi.Router) {
			r.Get("/connection_status", s.handleConnectionStatus)
			r.Route("/playbook_runs", func(r chi.Router) {
				r.Get("/", s.handleListRuns)
				r.Post("/", s.handleCreateRun)
				r.Route("/{run_id}", func(r chi.Router) {
					r.Get("/", s.handleRunDetails)
					r.Post("/cancel", s.handleCancelRun)
					r.Get("/systems", s.handleListSystems)
					r.Get("/systems/{system_id}", s.handleSystemDetails)
				})
			})
		})
	})

	return r
}

// authMiddleware resolves the bearer token to an identity principal.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		principal, ok := auth.Authenticate(token, s.config.Tokens)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Package api implements the climascope REST API: trigger a pipeline run,
// fetch archived run reports and query the sentiment history.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/internal/pipeline"
	"github.com/climascope/climascope/pkg/report"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*report.Report, error)
}

// HistoryReader lists persisted history rows.
type HistoryReader interface {
	List(ctx context.Context, f history.Filter) ([]history.Row, error)
}

// ReportSource fetches archived reports by run ID.
type ReportSource interface {
	GetReport(ctx context.Context, runID string) ([]byte, error)
}

// RunReader fetches run bookkeeping by ID.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*history.RunRow, error)
}

// Pinger reports backing-store health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures a Handler.
type Options struct {
	DB      Pinger    // optional; checked by /healthz
	Runs    RunReader // optional; resolves runs that have no archived report
	APIKey  string
	GroupBy []string // group-by fields, in key order
	Cache   ReportCache
	Logger  *zap.Logger
}

// Handler is the top-level API handler.
type Handler struct {
	runner  Runner
	history HistoryReader
	reports ReportSource
	runs    RunReader
	cache   ReportCache
	db      Pinger
	apiKey  string
	groupBy []string
	log     *zap.Logger
}

// NewHandler creates a new API handler. A nil cache gets an in-memory LRU.
func NewHandler(runner Runner, hist HistoryReader, reports ReportSource, opts Options) *Handler {
	if opts.Cache == nil {
		opts.Cache = NewMemoryReportCache(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		runner:  runner,
		history: hist,
		reports: reports,
		runs:    opts.Runs,
		cache:   opts.Cache,
		db:      opts.DB,
		apiKey:  opts.APIKey,
		groupBy: opts.GroupBy,
		log:     opts.Logger,
	}
}

// Routes builds the router with all API routes and middleware.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// Write endpoints (auth-protected)
		r.With(APIKeyAuth(h.apiKey)).Post("/runs", h.handleCreateRun)

		// Read endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/runs/{runID}", h.handleGetRun)
			r.Get("/history", h.handleHistory)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

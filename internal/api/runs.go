package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/internal/pipeline"
	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
)

type createRunRequest struct {
	AsOf   string `json:"as_of,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	opts := pipeline.RunOptions{DryRun: req.DryRun}
	if req.AsOf != "" {
		asOf, err := time.Parse(report.DateLayout, req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		opts.AsOf = asOf
	}

	rep, err := h.runner.Run(r.Context(), opts)
	if err != nil {
		h.log.Error("run failed", zap.Error(err))
		writeError(w, runErrorStatus(err), err.Error())
		return
	}

	if !rep.DryRun && !rep.NoData() {
		if err := h.cache.Put(r.Context(), rep); err != nil {
			h.log.Warn("cache report", zap.String("run_id", rep.RunID), zap.Error(err))
		}
	}

	status := http.StatusCreated
	if rep.NoData() || rep.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, rep)
}

// runErrorStatus maps pipeline errors to HTTP status codes.
func runErrorStatus(err error) int {
	switch {
	case errors.Is(err, sentiment.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sentiment.ErrConfiguration):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// runStatus describes a run whose report is not in the archive.
type runStatus struct {
	RunID         string    `json:"run_id"`
	Status        string    `json:"status"`
	AsOf          string    `json:"as_of"`
	ResponseCount int       `json:"response_count"`
	GroupCount    int       `json:"group_count"`
	AlertCount    int       `json:"alert_count"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newRunStatus(run *history.RunRow) runStatus {
	st := runStatus{
		RunID:         run.ID,
		Status:        run.Status,
		AsOf:          run.AsOf.Format(report.DateLayout),
		ResponseCount: run.ResponseCount,
		GroupCount:    run.GroupCount,
		AlertCount:    run.AlertCount,
		CreatedAt:     run.CreatedAt,
		UpdatedAt:     run.UpdatedAt,
	}
	if run.ErrorMessage != nil {
		st.ErrorMessage = *run.ErrorMessage
	}
	return st
}

// handleGetRun serves the archived report of a run. When run bookkeeping is
// available, runs without an archived report (still running, failed, or
// archive write lost) are answered with their status instead; 404 means the
// run does not exist.
func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := uuid.Parse(runID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	rep, err := h.cache.Get(r.Context(), runID)
	if err != nil {
		h.log.Warn("cache lookup", zap.String("run_id", runID), zap.Error(err))
	}
	if rep != nil {
		writeJSON(w, http.StatusOK, rep)
		return
	}

	if h.runs != nil {
		run, err := h.runs.GetRun(r.Context(), runID)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			h.log.Error("run lookup", zap.String("run_id", runID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "run lookup failed")
			return
		}
		if run.StorageRef == nil {
			writeJSON(w, http.StatusOK, newRunStatus(run))
			return
		}
	}

	data, err := h.reports.GetReport(r.Context(), runID)
	if err != nil {
		if h.runs != nil {
			h.log.Error("archived report unavailable", zap.String("run_id", runID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "archived report unavailable")
			return
		}
		h.log.Debug("report not found", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	rep, err = report.Decode(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt report: "+err.Error())
		return
	}

	if err := h.cache.Put(r.Context(), rep); err != nil {
		h.log.Warn("cache report", zap.String("run_id", runID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, rep)
}

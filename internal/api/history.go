package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
)

type historyPoint struct {
	RunID        string             `json:"run_id"`
	Group        sentiment.GroupKey `json:"group"`
	MeanPolarity float64            `json:"mean_polarity"`
	AsOf         string             `json:"as_of"`
}

type historyResponse struct {
	GroupBy []string       `json:"group_by"`
	Points  []historyPoint `json:"points"`
}

// parseHistoryFilter reads group fields (one query parameter per group-by
// field) and the from/to/limit parameters.
func parseHistoryFilter(q map[string][]string, groupBy []string) (history.Filter, string) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	f := history.Filter{GroupBy: groupBy}
	var key sentiment.GroupKey
	for _, field := range groupBy {
		if v := get(field); v != "" {
			key = append(key, v)
		}
	}
	switch len(key) {
	case 0:
	case len(groupBy):
		f.Group = key
	default:
		return f, "filter must name every group field or none"
	}

	for _, d := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		name, dst := d.name, d.dst
		v := get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(report.DateLayout, v)
		if err != nil {
			return f, name + " must be YYYY-MM-DD"
		}
		*dst = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, "to must not be before from"
	}

	if v := get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, "limit must be a positive integer"
		}
		f.Limit = n
	}
	return f, ""
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	f, msg := parseHistoryFilter(r.URL.Query(), h.groupBy)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	rows, err := h.history.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list history: "+err.Error())
		return
	}

	resp := historyResponse{GroupBy: h.groupBy, Points: make([]historyPoint, 0, len(rows))}
	for _, row := range rows {
		resp.Points = append(resp.Points, historyPoint{
			RunID:        row.RunID,
			Group:        row.Group,
			MeanPolarity: row.MeanPolarity,
			AsOf:         row.AsOf.Format(report.DateLayout),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

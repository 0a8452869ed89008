// Package report defines the payload a pipeline run hands to its
// presentation layer: the CLI renderers, the HTTP API and the archive.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/climascope/climascope/pkg/sentiment"
)

// Run statuses as reported to clients.
const (
	StatusCompleted = "completed"
	StatusNoData    = "no_data"
)

// DateLayout is the calendar-date format used in reports and query strings.
const DateLayout = "2006-01-02"

// Thresholds echoes the alert bounds a run was evaluated with.
type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Report is the full result of one pipeline run.
type Report struct {
	RunID           string                     `json:"run_id"`
	Status          string                     `json:"status"`
	AsOf            string                     `json:"as_of"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	GroupBy         []string                   `json:"group_by"`
	Thresholds      Thresholds                 `json:"thresholds"`
	ResponseCount   int                        `json:"response_count"`
	UnresolvedCount int                        `json:"unresolved_count"`
	GroupCount      int                        `json:"group_count"`
	AlertCount      int                        `json:"alert_count"`
	Aggregates      []sentiment.GroupAggregate `json:"aggregates"`
	Alerts          []sentiment.Alert          `json:"alerts"`
	Summary         *sentiment.SummaryReport   `json:"summary,omitempty"`
	StorageRef      string                     `json:"storage_ref,omitempty"`
	DryRun          bool                       `json:"dry_run,omitempty"`
}

// NoData reports whether the run found nothing to summarize.
func (r *Report) NoData() bool {
	return r.Status == StatusNoData
}

// Marshal encodes the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Decode parses an archived report.
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

package surface_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
	"github.com/climascope/climascope/pkg/surface"
)

func sampleReport() *report.Report {
	return &report.Report{
		RunID:         "0b6f1c2e-run",
		Status:        report.StatusCompleted,
		AsOf:          "2025-06-02",
		GroupBy:       []string{"department"},
		Thresholds:    report.Thresholds{Low: 3.0, High: 4.5},
		ResponseCount: 6,
		GroupCount:    3,
		AlertCount:    2,
		Aggregates: []sentiment.GroupAggregate{
			{Group: sentiment.GroupKey{"Sales"}, MeanPolarity: 2.0, SampleCount: 2},
			{Group: sentiment.GroupKey{"IT"}, MeanPolarity: 5.0, SampleCount: 2},
			{Group: sentiment.GroupKey{"HR"}, MeanPolarity: 3.5, SampleCount: 2},
		},
		Alerts: []sentiment.Alert{
			{Group: sentiment.GroupKey{"Sales"}, Level: sentiment.AlertLow, Value: 2.0, Message: "Alert: low morale (2.00) in Sales."},
			{Group: sentiment.GroupKey{"IT"}, Level: sentiment.AlertHigh, Value: 5.0, Message: "Alert: high morale (5.00) in IT."},
		},
		Summary: &sentiment.SummaryReport{
			WorstGroup: sentiment.GroupKey{"Sales"}, WorstValue: 2.0,
			BestGroup: sentiment.GroupKey{"IT"}, BestValue: 5.0,
		},
	}
}

func TestTerminalRenderer_BasicOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer
	if err := r.Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"as of 2025-06-02",
		"Analyzed: 6 responses / 3 groups",
		"Lowest morale:  Sales (2.00)",
		"Highest morale: IT (5.00)",
		"HR     3.50  n=2",
		"Alert: low morale (2.00) in Sales.",
		"Alert: high morale (5.00) in IT.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\033[") {
		t.Error("NO_COLOR set but output contains ANSI codes")
	}
}

func TestTerminalRenderer_NoData(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	rep := &report.Report{RunID: "r", Status: report.StatusNoData, AsOf: "2025-06-02"}
	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, rep); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "No free-text responses") {
		t.Errorf("expected no-data message, got:\n%s", buf.String())
	}

	rep.ResponseCount = 4
	buf.Reset()
	_ = (&surface.TerminalRenderer{}).Render(&buf, rep)
	if !strings.Contains(buf.String(), "No resolvable sentiment in 4 responses") {
		t.Errorf("expected unresolved message, got:\n%s", buf.String())
	}
}

func TestTerminalRenderer_NoAlerts(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	rep := sampleReport()
	rep.Alerts = nil
	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, rep); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "No alerts.") {
		t.Error("expected 'No alerts.' message")
	}
}

func TestTerminalRenderer_ColorRespected(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer
	if err := r.Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when NO_COLOR is not set")
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.MarkdownRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{
		"## Work climate as of 2025-06-02",
		"- Lowest morale: **Sales** (2.00)",
		"| IT | 5.00 | 2 |",
		":red_circle: Alert: low morale (2.00) in Sales.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	var got report.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.AlertCount != 2 || len(got.Alerts) != 2 {
		t.Errorf("alerts lost in JSON output: %+v", got)
	}
}

func TestForFormat(t *testing.T) {
	for _, name := range []string{"", "text", "json", "markdown"} {
		if _, err := surface.ForFormat(name); err != nil {
			t.Errorf("ForFormat(%q): %v", name, err)
		}
	}
	if _, err := surface.ForFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

package sentiment_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/climascope/climascope/pkg/sentiment"
)

func TestEngineEndToEnd(t *testing.T) {
	cfg := sentiment.Defaults()
	cfg.LowThreshold = 3.5
	cfg.HighThreshold = 4.5

	engine, err := sentiment.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	asOf := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	result, err := engine.Run([]sentiment.ScoredResponse{
		text("Sales", 2),
		text("Sales", 4),
		text("IT", 5),
	}, asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantAggregates := []sentiment.GroupAggregate{
		{Group: sentiment.GroupKey{"Sales"}, MeanPolarity: 3.0, SampleCount: 2},
		{Group: sentiment.GroupKey{"IT"}, MeanPolarity: 5.0, SampleCount: 1},
	}
	if diff := cmp.Diff(wantAggregates, result.Aggregates); diff != "" {
		t.Errorf("aggregates mismatch (-want +got):\n%s", diff)
	}

	wantSummary := &sentiment.SummaryReport{
		WorstGroup: sentiment.GroupKey{"Sales"},
		WorstValue: 3.0,
		BestGroup:  sentiment.GroupKey{"IT"},
		BestValue:  5.0,
	}
	if diff := cmp.Diff(wantSummary, result.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	// IT at 5.0 is above 4.5 as well.
	wantAlerts := []sentiment.Alert{
		{Group: sentiment.GroupKey{"Sales"}, Level: sentiment.AlertLow, Value: 3.0, Message: "Alert: low morale (3.00) in Sales."},
		{Group: sentiment.GroupKey{"IT"}, Level: sentiment.AlertHigh, Value: 5.0, Message: "Alert: high morale (5.00) in IT."},
	}
	if diff := cmp.Diff(wantAlerts, result.Alerts); diff != "" {
		t.Errorf("alerts mismatch (-want +got):\n%s", diff)
	}

	if len(result.History) != 2 {
		t.Errorf("expected 2 history records, got %d", len(result.History))
	}
	if result.NoData() {
		t.Error("NoData() = true for a run with data")
	}
}

func TestEngineLowAlertOnly(t *testing.T) {
	cfg := sentiment.Defaults()
	cfg.LowThreshold = 3.5
	cfg.HighThreshold = 5.0

	engine, err := sentiment.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := engine.Run([]sentiment.ScoredResponse{
		text("Sales", 2), text("Sales", 4), text("IT", 5),
	}, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []sentiment.Alert{
		{Group: sentiment.GroupKey{"Sales"}, Level: sentiment.AlertLow, Value: 3.0, Message: "Alert: low morale (3.00) in Sales."},
	}
	if diff := cmp.Diff(want, result.Alerts); diff != "" {
		t.Errorf("alerts mismatch (-want +got):\n%s", diff)
	}
}

func TestEngineNoData(t *testing.T) {
	engine, err := sentiment.NewEngine(sentiment.Defaults())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := engine.Run([]sentiment.ScoredResponse{
		{Group: sentiment.GroupKey{"IT"}, Kind: sentiment.KindNumeric, Polarity: 4},
	}, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.NoData() {
		t.Error("expected NoData() for a run without free-text answers")
	}
	if len(result.Aggregates) != 0 || len(result.Alerts) != 0 || len(result.History) != 0 {
		t.Errorf("expected empty slices, got %+v", result)
	}
}

func TestEngineValidationPropagates(t *testing.T) {
	engine, err := sentiment.NewEngine(sentiment.Defaults())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = engine.Run([]sentiment.ScoredResponse{text("IT", 9)}, time.Now())
	if !errors.Is(err, sentiment.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sentiment.Config)
	}{
		{"inverted thresholds", func(c *sentiment.Config) { c.LowThreshold, c.HighThreshold = 4, 3 }},
		{"no group by", func(c *sentiment.Config) { c.GroupBy = nil }},
		{"duplicate group by", func(c *sentiment.Config) { c.GroupBy = []string{"department", "department"} }},
		{"bad scale", func(c *sentiment.Config) { c.Scale = sentiment.Scale{Min: 0, Max: 5} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := sentiment.Defaults()
			tc.mutate(&cfg)
			if _, err := sentiment.NewEngine(cfg); !errors.Is(err, sentiment.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

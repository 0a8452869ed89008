package sentiment_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/climascope/climascope/pkg/sentiment"
)

func agg(group string, mean float64) sentiment.GroupAggregate {
	return sentiment.GroupAggregate{Group: sentiment.GroupKey{group}, MeanPolarity: mean, SampleCount: 1}
}

func TestEvaluateThresholdExclusivity(t *testing.T) {
	ev, err := sentiment.NewEvaluator(3.5, 4.5)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	tests := []struct {
		mean      float64
		wantLevel sentiment.AlertLevel // "" means no alert
	}{
		{3.5, ""},
		{4.5, ""},
		{4.0, ""},
		{3.49, sentiment.AlertLow},
		{4.51, sentiment.AlertHigh},
		{1.0, sentiment.AlertLow},
		{5.0, sentiment.AlertHigh},
	}

	for _, tt := range tests {
		alerts := ev.Evaluate([]sentiment.GroupAggregate{agg("G", tt.mean)})
		if tt.wantLevel == "" {
			if len(alerts) != 0 {
				t.Errorf("mean %.2f: expected no alert, got %v", tt.mean, alerts)
			}
			continue
		}
		if len(alerts) != 1 {
			t.Fatalf("mean %.2f: expected 1 alert, got %d", tt.mean, len(alerts))
		}
		if alerts[0].Level != tt.wantLevel {
			t.Errorf("mean %.2f: level = %s, want %s", tt.mean, alerts[0].Level, tt.wantLevel)
		}
		if alerts[0].Value != tt.mean {
			t.Errorf("mean %.2f: value = %v", tt.mean, alerts[0].Value)
		}
	}
}

func TestEvaluateMessagesAndOrder(t *testing.T) {
	ev, err := sentiment.NewEvaluator(3.5, 4.5)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	in := []sentiment.GroupAggregate{
		agg("Support", 4.8),
		agg("Finance", 4.0),
		{Group: sentiment.GroupKey{"Acme", "Sales"}, MeanPolarity: 10.0 / 3.0, SampleCount: 3},
	}
	want := []sentiment.Alert{
		{
			Group:   sentiment.GroupKey{"Support"},
			Level:   sentiment.AlertHigh,
			Value:   4.8,
			Message: "Alert: high morale (4.80) in Support.",
		},
		{
			Group:   sentiment.GroupKey{"Acme", "Sales"},
			Level:   sentiment.AlertLow,
			Value:   10.0 / 3.0,
			Message: "Alert: low morale (3.33) in Acme / Sales.",
		},
	}

	if diff := cmp.Diff(want, ev.Evaluate(in)); diff != "" {
		t.Errorf("Evaluate mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEvaluatorMisconfigured(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
	}{
		{"equal", 4, 4},
		{"inverted", 4.5, 3.5},
		{"nan", math.NaN(), 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := sentiment.NewEvaluator(tc.low, tc.high)
			if ev != nil {
				t.Error("expected nil evaluator")
			}
			var ce *sentiment.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
		})
	}
}

// Package sentiment implements the climascope aggregation core: it turns
// per-response polarity labels into per-group statistics, alerts, an
// executive summary and dated history records.
// The package performs no I/O and keeps no state between calls.
package sentiment

import (
	"strings"
	"time"
)

// AnswerKind distinguishes free-text answers from numeric ones.
type AnswerKind string

const (
	KindFreeText AnswerKind = "free_text"
	KindNumeric  AnswerKind = "numeric"
)

// Unresolved marks a response whose polarity could not be extracted.
const Unresolved = 0

// Scale is the inclusive ordinal range of valid polarities.
type Scale struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// DefaultScale is the 1 (very negative) .. 5 (very positive) star scale.
func DefaultScale() Scale {
	return Scale{Min: 1, Max: 5}
}

// Contains reports whether p lies within the scale.
func (s Scale) Contains(p int) bool {
	return p >= s.Min && p <= s.Max
}

// GroupKey identifies an organizational unit, e.g. {"Sales"} or
// {"Acme", "Sales"}. Element order is significant.
type GroupKey []string

// keySep cannot appear in database identifiers we group by.
const keySep = "\x1f"

// ID returns a canonical encoding of the key, usable as a map key.
func (k GroupKey) ID() string {
	return strings.Join(k, keySep)
}

// String renders the key for humans: "Acme / Sales".
func (k GroupKey) String() string {
	return strings.Join(k, " / ")
}

// Equal reports whether both keys have the same elements in the same order.
func (k GroupKey) Equal(o GroupKey) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i] != o[i] {
			return false
		}
	}
	return true
}

// Compare orders keys lexicographically, element by element. A key that is
// a prefix of another sorts first.
func (k GroupKey) Compare(o GroupKey) int {
	for i := 0; i < len(k) && i < len(o); i++ {
		if c := strings.Compare(k[i], o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(o):
		return -1
	case len(k) > len(o):
		return 1
	default:
		return 0
	}
}

func (k GroupKey) clone() GroupKey {
	out := make(GroupKey, len(k))
	copy(out, k)
	return out
}

// ScoredResponse is one survey answer with its polarity already resolved
// by the sentiment scorer.
type ScoredResponse struct {
	EmployeeID string     `json:"employee_id"`
	Group      GroupKey   `json:"group"`
	Kind       AnswerKind `json:"kind"`
	Polarity   int        `json:"polarity"`
}

// GroupAggregate is the per-group statistic for one run.
// Immutable once computed.
type GroupAggregate struct {
	Group        GroupKey `json:"group"`
	MeanPolarity float64  `json:"mean_polarity"`
	SampleCount  int      `json:"sample_count"`
}

// AlertLevel is the side of the threshold band a group fell out of.
type AlertLevel string

const (
	AlertLow  AlertLevel = "low"
	AlertHigh AlertLevel = "high"
)

// Alert flags a group whose mean polarity crossed a threshold.
type Alert struct {
	Group   GroupKey   `json:"group"`
	Level   AlertLevel `json:"level"`
	Value   float64    `json:"value"`
	Message string     `json:"message"`
}

// HistoricalRecord is one dated snapshot row per group per run.
type HistoricalRecord struct {
	Group        GroupKey  `json:"group"`
	MeanPolarity float64   `json:"mean_polarity"`
	AsOf         time.Time `json:"as_of"`
}

// SummaryReport names the best and worst groups of a run.
// Values are rounded to two decimals for display.
type SummaryReport struct {
	WorstGroup GroupKey `json:"worst_group"`
	WorstValue float64  `json:"worst_value"`
	BestGroup  GroupKey `json:"best_group"`
	BestValue  float64  `json:"best_value"`
}

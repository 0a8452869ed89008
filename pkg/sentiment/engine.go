package sentiment

import "time"

// Result is the complete output of one aggregation run.
type Result struct {
	Aggregates []GroupAggregate   `json:"aggregates"`
	Alerts     []Alert            `json:"alerts"`
	Summary    *SummaryReport     `json:"summary,omitempty"` // nil when there was no data
	History    []HistoricalRecord `json:"history"`
	AsOf       time.Time          `json:"as_of"`
}

// NoData reports whether the run had nothing to summarize.
func (r *Result) NoData() bool {
	return r.Summary == nil
}

// Engine wires the aggregator, evaluator and summary builder for one
// validated Config. It is safe for concurrent use.
type Engine struct {
	aggregator *Aggregator
	evaluator  *Evaluator
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ag, err := NewAggregator(cfg.Scale, len(cfg.GroupBy))
	if err != nil {
		return nil, err
	}
	ev, err := NewEvaluator(cfg.LowThreshold, cfg.HighThreshold)
	if err != nil {
		return nil, err
	}
	return &Engine{aggregator: ag, evaluator: ev}, nil
}

// Run aggregates responses and derives alerts, summary and history records.
// When no response is eligible the result has empty slices and a nil
// Summary; that is not an error.
func (e *Engine) Run(responses []ScoredResponse, asOf time.Time) (*Result, error) {
	aggregates, err := e.aggregator.Aggregate(responses)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Aggregates: aggregates,
		Alerts:     e.evaluator.Evaluate(aggregates),
		History:    HistoricalRecords(aggregates, asOf),
		AsOf:       CalendarDay(asOf),
	}
	if result.Alerts == nil {
		result.Alerts = []Alert{}
	}

	summary, err := Summarize(aggregates)
	switch {
	case IsEmptyInput(err):
		// nothing to summarize
	case err != nil:
		return nil, err
	default:
		result.Summary = &summary
	}
	return result, nil
}

package sentiment

import "fmt"

// Evaluator applies exclusive low/high thresholds to group means.
type Evaluator struct {
	low  float64
	high float64
}

// NewEvaluator validates the thresholds up front so a bad configuration
// can never silently produce zero alerts.
func NewEvaluator(low, high float64) (*Evaluator, error) {
	if err := validateThresholds(low, high); err != nil {
		return nil, err
	}
	return &Evaluator{low: low, high: high}, nil
}

// Evaluate returns one alert per group whose mean lies strictly outside the
// thresholds, in input order. A mean equal to a threshold is not alerted.
func (e *Evaluator) Evaluate(aggregates []GroupAggregate) []Alert {
	var alerts []Alert
	for _, ag := range aggregates {
		switch {
		case ag.MeanPolarity < e.low:
			alerts = append(alerts, newAlert(ag, AlertLow))
		case ag.MeanPolarity > e.high:
			alerts = append(alerts, newAlert(ag, AlertHigh))
		}
	}
	return alerts
}

func newAlert(ag GroupAggregate, level AlertLevel) Alert {
	return Alert{
		Group:   ag.Group,
		Level:   level,
		Value:   ag.MeanPolarity,
		Message: fmt.Sprintf("Alert: %s morale (%.2f) in %s.", level, ag.MeanPolarity, ag.Group),
	}
}

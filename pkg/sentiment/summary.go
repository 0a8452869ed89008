package sentiment

import "math"

// Summarize picks the worst (lowest mean) and best (highest mean) groups.
// Exact ties go to the lexicographically smallest group key, so the result
// does not depend on input order.
func Summarize(aggregates []GroupAggregate) (SummaryReport, error) {
	if len(aggregates) == 0 {
		return SummaryReport{}, &EmptyInputError{Op: "summarize"}
	}

	worst, best := aggregates[0], aggregates[0]
	for _, ag := range aggregates[1:] {
		if ag.MeanPolarity < worst.MeanPolarity ||
			(ag.MeanPolarity == worst.MeanPolarity && ag.Group.Compare(worst.Group) < 0) {
			worst = ag
		}
		if ag.MeanPolarity > best.MeanPolarity ||
			(ag.MeanPolarity == best.MeanPolarity && ag.Group.Compare(best.Group) < 0) {
			best = ag
		}
	}

	return SummaryReport{
		WorstGroup: worst.Group.clone(),
		WorstValue: Round2(worst.MeanPolarity),
		BestGroup:  best.Group.clone(),
		BestValue:  Round2(best.MeanPolarity),
	}, nil
}

// Round2 rounds to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

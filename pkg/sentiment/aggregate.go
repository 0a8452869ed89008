package sentiment

import "fmt"

// Aggregator groups scored responses by organizational unit.
type Aggregator struct {
	scale Scale
	arity int
}

// NewAggregator creates an Aggregator for the given polarity scale. When
// arity is positive, every group key must have exactly that many elements.
func NewAggregator(scale Scale, arity int) (*Aggregator, error) {
	if err := validateScale(scale); err != nil {
		return nil, err
	}
	if arity < 0 {
		return nil, &ConfigurationError{Field: "group_by", Reason: "arity must not be negative"}
	}
	return &Aggregator{scale: scale, arity: arity}, nil
}

// Aggregate computes the mean polarity per group.
//
// Only free-text responses with a resolved polarity are counted. Groups are
// returned in order of first appearance, so identical input yields identical
// output. An empty result is not an error. Any malformed response fails the
// whole call and no aggregate is returned.
func (a *Aggregator) Aggregate(responses []ScoredResponse) ([]GroupAggregate, error) {
	type acc struct {
		group GroupKey
		sum   float64
		count int
	}
	index := make(map[string]int)
	var accs []*acc

	for i, r := range responses {
		if r.Kind != KindFreeText {
			continue
		}
		if r.Polarity == Unresolved {
			continue
		}
		if !a.scale.Contains(r.Polarity) {
			return nil, &ValidationError{
				Index:  i,
				Field:  "polarity",
				Reason: outOfScale(r.Polarity, a.scale),
			}
		}
		if err := a.checkGroup(i, r.Group); err != nil {
			return nil, err
		}

		id := r.Group.ID()
		pos, ok := index[id]
		if !ok {
			pos = len(accs)
			index[id] = pos
			accs = append(accs, &acc{group: r.Group.clone()})
		}
		accs[pos].sum += float64(r.Polarity)
		accs[pos].count++
	}

	out := make([]GroupAggregate, 0, len(accs))
	for _, g := range accs {
		out = append(out, GroupAggregate{
			Group:        g.group,
			MeanPolarity: g.sum / float64(g.count),
			SampleCount:  g.count,
		})
	}
	return out, nil
}

func (a *Aggregator) checkGroup(i int, k GroupKey) error {
	if len(k) == 0 {
		return &ValidationError{Index: i, Field: "group", Reason: "missing group key"}
	}
	if a.arity > 0 && len(k) != a.arity {
		return &ValidationError{Index: i, Field: "group", Reason: "group key has wrong number of fields"}
	}
	for _, part := range k {
		if part == "" {
			return &ValidationError{Index: i, Field: "group", Reason: "empty group key component"}
		}
	}
	return nil
}

func outOfScale(p int, s Scale) string {
	return fmt.Sprintf("value %d outside scale [%d,%d]", p, s.Min, s.Max)
}

package sentiment

import (
	"errors"
	"math"
)

// Config is everything the core needs from its caller. It is passed in
// explicitly; the core never reads the environment.
type Config struct {
	LowThreshold  float64
	HighThreshold float64
	// GroupBy names the organizational columns a GroupKey is built from,
	// in key order, e.g. ["company", "department"].
	GroupBy []string
	Scale   Scale
}

// Defaults returns the default thresholds, grouping and scale.
func Defaults() Config {
	return Config{
		LowThreshold:  3.0,
		HighThreshold: 4.0,
		GroupBy:       []string{"department"},
		Scale:         DefaultScale(),
	}
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error
	if err := validateThresholds(c.LowThreshold, c.HighThreshold); err != nil {
		errs = append(errs, err)
	}
	if err := validateScale(c.Scale); err != nil {
		errs = append(errs, err)
	}
	if len(c.GroupBy) == 0 {
		errs = append(errs, &ConfigurationError{Field: "group_by", Reason: "at least one field is required"})
	}
	seen := make(map[string]bool)
	for _, f := range c.GroupBy {
		if f == "" {
			errs = append(errs, &ConfigurationError{Field: "group_by", Reason: "empty field name"})
			continue
		}
		if seen[f] {
			errs = append(errs, &ConfigurationError{Field: "group_by", Reason: "duplicate field " + f})
		}
		seen[f] = true
	}
	return errors.Join(errs...)
}

func validateThresholds(low, high float64) error {
	if math.IsNaN(low) || math.IsNaN(high) {
		return &ConfigurationError{Field: "thresholds", Reason: "thresholds must be numbers"}
	}
	if low >= high {
		return &ConfigurationError{Field: "thresholds", Reason: "low_threshold must be below high_threshold"}
	}
	return nil
}

func validateScale(s Scale) error {
	if s.Min <= Unresolved {
		return &ConfigurationError{Field: "scale.min", Reason: "must be at least 1"}
	}
	if s.Min >= s.Max {
		return &ConfigurationError{Field: "scale", Reason: "min must be below max"}
	}
	return nil
}

package sentiment

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each typed error below unwraps to one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrEmptyInput    = errors.New("empty input")
)

// ValidationError reports malformed input data, such as a polarity outside
// the scale or a missing group key. Runs that hit it must fail as a whole.
type ValidationError struct {
	Index  int // position of the offending response, -1 if not applicable
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation error: response %d: %s: %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConfigurationError reports invalid setup, detected before any data is read.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// EmptyInputError means there was nothing to summarize. Callers treat it as
// a no-op outcome rather than a failure.
type EmptyInputError struct {
	Op string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: no eligible data", e.Op)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// IsEmptyInput reports whether err signals the no-data outcome.
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

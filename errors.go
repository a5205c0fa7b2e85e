package backoff

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked using errors.Is
var (
	// ErrInvalidConfig is returned when an algorithm or a session is built from parameters
	// that violate their constraints. It is only ever returned at construction time.
	ErrInvalidConfig = errors.New("invalid backoff configuration")

	// ErrInvalidState is returned when an algorithm hands back an interval the session
	// cannot honour, such as a negative duration. It signals a programming error in a
	// custom algorithm, not a retryable condition.
	ErrInvalidState = errors.New("invalid backoff state")
)

// ConfigError describes which parameter was rejected and why.
type ConfigError struct {
	// Field is the name of the rejected parameter
	Field string

	// Reason states the violated constraint
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("backoff: %s is invalid: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig so callers can match every ConfigError with errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

package retry

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// MaxRecordedErrors bounds the failures kept per session for AbortError.Errors.
// Older failures are dropped first.
const MaxRecordedErrors = 64

// ErrAborted matches every *AbortError with errors.Is.
var ErrAborted = errors.New("retry aborted")

// AbortError is returned when a session gives up. It wraps the last failure of the operation,
// so errors.Is and errors.As see through it.
type AbortError struct {
	// Session is the id of the retry session
	Session string

	// Err is the last error returned by the operation
	Err error

	// Attempts is the number of times the operation ran
	Attempts int

	// Elapsed is the sum of the intervals waited
	Elapsed time.Duration

	errs error
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return fmt.Sprintf("retry: session %s aborted after %d attempts (%s waited): %v",
		e.Session, e.Attempts, e.Elapsed, e.Err)
}

// Unwrap returns the last failure.
func (e *AbortError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAborted.
func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// Errors returns the failures observed during the session, oldest first. Only the
// last MaxRecordedErrors are kept.
func (e *AbortError) Errors() []error {
	return multierr.Errors(e.errs)
}

func record(errs, err error) error {
	list := multierr.Errors(errs)
	if len(list) < MaxRecordedErrors {
		return multierr.Append(errs, err)
	}
	kept := append([]error(nil), list[len(list)-MaxRecordedErrors+1:]...)
	return multierr.Combine(append(kept, err)...)
}

package backoff

import (
	"fmt"
	"math"
	"time"
)

// Backoff tracks one retry session: the number of decisions taken and the sum of the
// intervals handed out. Each call to Next either returns an interval to wait or Abort.
//
// A Backoff is not safe for concurrent use. Create one per in-flight operation and
// discard it once the operation succeeds or the session aborts.
//
// Once Next returns Abort the session is latched: every later call returns Abort and
// leaves the counters untouched.
type Backoff struct {
	algorithm   Algorithm
	maxAttempts int
	maxElapsed  time.Duration

	attempts int
	elapsed  time.Duration
	aborted  bool
}

// New starts a session using algorithm with the default ceilings, adjusted by opts.
func New(algorithm Algorithm, opts ...Option) (*Backoff, error) {
	return NewConfig(algorithm, opts...).New()
}

// Next increments the attempt count and decides whether the caller should retry.
//
// Abort is returned when the attempt ceiling is exceeded, when the algorithm elects to stop,
// or when adding the new interval pushes the elapsed time past its ceiling. In the last case
// the interval still counts towards Elapsed.
//
// An error wrapping ErrInvalidState is returned, together with Abort, if the algorithm
// produces a negative interval.
func (b *Backoff) Next() (Result, error) {
	if b.aborted {
		return Abort, nil
	}

	if b.attempts == math.MaxInt {
		return b.abort(), nil
	}
	b.attempts++
	if b.attempts > b.maxAttempts {
		return b.abort(), nil
	}

	res := b.algorithm.Next(b.attempts, b.elapsed)
	if res.Aborted() {
		return b.abort(), nil
	}

	interval := res.Interval()
	if interval < 0 {
		return b.abort(), fmt.Errorf("%w: algorithm returned negative interval %s on attempt %d",
			ErrInvalidState, interval, b.attempts)
	}

	b.elapsed = addSaturated(b.elapsed, interval)
	if b.elapsed > b.maxElapsed {
		return b.abort(), nil
	}

	return res, nil
}

// Attempts returns the number of decisions taken so far, including the one that aborted.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Elapsed returns the sum of the intervals returned so far.
func (b *Backoff) Elapsed() time.Duration {
	return b.elapsed
}

// Aborted reports whether the session has ended.
func (b *Backoff) Aborted() bool {
	return b.aborted
}

// Snapshot captures the session counters.
type Snapshot struct {
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	Aborted  bool          `json:"aborted"`
}

// Snapshot returns the current counters, for persistence or telemetry.
func (b *Backoff) Snapshot() Snapshot {
	return Snapshot{
		Attempts: b.attempts,
		Elapsed:  b.elapsed,
		Aborted:  b.aborted,
	}
}

// Resume restores counters captured by Snapshot into a fresh session, so a session
// interrupted by a restart keeps consuming the same ceilings.
// It fails with ErrInvalidState once the session has taken a decision.
func (b *Backoff) Resume(s Snapshot) error {
	if b.attempts != 0 || b.elapsed != 0 || b.aborted {
		return fmt.Errorf("%w: cannot resume a session that already started", ErrInvalidState)
	}
	if s.Attempts < 0 || s.Elapsed < 0 {
		return fmt.Errorf("%w: snapshot has negative counters (attempts=%d, elapsed=%s)",
			ErrInvalidState, s.Attempts, s.Elapsed)
	}

	b.attempts = s.Attempts
	b.elapsed = s.Elapsed
	b.aborted = s.Aborted
	return nil
}

func (b *Backoff) abort() Result {
	b.aborted = true
	return Abort
}

func addSaturated(a, b time.Duration) time.Duration {
	if a > UnlimitedElapsedTime-b {
		return UnlimitedElapsedTime
	}
	return a + b
}

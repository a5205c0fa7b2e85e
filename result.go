package backoff

import "time"

// Result is the outcome of a single backoff decision: either an interval to wait
// before the next attempt or an abort.
// The zero value is a zero interval, never an abort.
type Result struct {
	interval time.Duration
	abort    bool
}

// Abort tells the caller to stop retrying.
var Abort = Result{abort: true}

// Delay returns a Result asking the caller to wait d before retrying.
func Delay(d time.Duration) Result {
	return Result{interval: d}
}

// Aborted reports whether the caller should give up.
func (r Result) Aborted() bool {
	return r.abort
}

// Interval returns the duration to wait. It is always zero for an abort.
func (r Result) Interval() time.Duration {
	if r.abort {
		return 0
	}
	return r.interval
}

func (r Result) String() string {
	if r.abort {
		return "abort"
	}
	return r.interval.String()
}

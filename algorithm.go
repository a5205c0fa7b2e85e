package backoff

import (
	"math"
	"time"
)

// UnlimitedInterval disables the maximum interval cap of an algorithm.
const UnlimitedInterval = time.Duration(math.MaxInt64)

// Algorithm computes the interval to wait before the next retry.
// Implementations provided by this package are immutable and safe for concurrent use.
type Algorithm interface {
	// Next calculates the interval for the given attempt.
	// The attempt parameter is 1-indexed; elapsed is the sum of intervals already returned
	// in the current session. Returning Abort stops the session.
	Next(attempt int, elapsed time.Duration) Result
}

// AlgorithmFunc adapts a plain function into an Algorithm.
//
// Example:
//
//	capped := backoff.AlgorithmFunc(func(attempt int, _ time.Duration) backoff.Result {
//	    if attempt > 5 {
//	        return backoff.Abort
//	    }
//	    return backoff.Delay(time.Duration(attempt) * time.Second)
//	})
type AlgorithmFunc func(attempt int, elapsed time.Duration) Result

// Next calls f(attempt, elapsed).
func (f AlgorithmFunc) Next(attempt int, elapsed time.Duration) Result {
	return f(attempt, elapsed)
}

// Intervals are computed in whole milliseconds; fractions are truncated.
func toMillis(d time.Duration) int64 {
	return int64(d / time.Millisecond)
}

func fromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// grow returns base * multiplier^(attempt-1).
func grow(base int64, multiplier float64, attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	return float64(base) * math.Pow(multiplier, float64(attempt-1))
}

func validMultiplier(m float64) bool {
	return m >= 1.0 && !math.IsInf(m, 0)
}

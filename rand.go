package backoff

import "math/rand/v2"

// Rand is the source of randomness used by jittered algorithms.
// *rand.Rand from math/rand/v2 satisfies it, so tests can pass a seeded generator.
// A Rand shared between goroutines must be safe for concurrent use.
type Rand interface {
	Int64N(n int64) int64
}

// globalRand delegates to the goroutine-safe top level generator.
type globalRand struct{}

func (globalRand) Int64N(n int64) int64 {
	return rand.Int64N(n)
}

// between draws uniformly from the inclusive range [low, high].
func between(r Rand, low, high int64) int64 {
	if high <= low {
		return low
	}
	if r == nil {
		r = globalRand{}
	}
	return low + r.Int64N(high-low+1)
}

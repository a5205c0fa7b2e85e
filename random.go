package backoff

import (
	"math"
	"time"
)

const (
	DefaultLowInterval    = 500 * time.Millisecond
	DefaultHighInterval   = 1000 * time.Millisecond
	DefaultLowMultiplier  = 1.0
	DefaultHighMultiplier = 3.0
)

// RandomIntervalConfig holds the parameters of a random interval algorithm.
type RandomIntervalConfig struct {
	// LowInterval is the lower bound of the first draw. Must be at least 1ms.
	LowInterval time.Duration

	// HighInterval is the upper bound of the first draw. Must be greater than LowInterval.
	HighInterval time.Duration

	// LowMultiplier grows the lower bound on each retry. Must be >= 1.0.
	LowMultiplier float64

	// HighMultiplier grows the upper bound on each retry. Must be >= 1.0.
	HighMultiplier float64

	// MaxInterval caps the upper bound. Must be >= HighInterval.
	MaxInterval time.Duration

	// Rand is the random source. Nil uses the global generator.
	Rand Rand
}

// DefaultRandomIntervalConfig returns the default random interval configuration:
//
//	| Random range |
//	| ------------ |
//	| (500..1000)  |
//	| (500..3000)  |
//	| (500..9000)  |
//	| (500..15000) |
func DefaultRandomIntervalConfig() RandomIntervalConfig {
	return RandomIntervalConfig{
		LowInterval:    DefaultLowInterval,
		HighInterval:   DefaultHighInterval,
		LowMultiplier:  DefaultLowMultiplier,
		HighMultiplier: DefaultHighMultiplier,
		MaxInterval:    DefaultMaxInterval,
	}
}

// Validate checks the configuration and returns a *ConfigError for the first violated constraint.
func (c RandomIntervalConfig) Validate() error {
	switch {
	case c.LowInterval < time.Millisecond:
		return invalid("low_interval", "must be at least 1ms, got %s", c.LowInterval)
	case c.HighInterval < time.Millisecond:
		return invalid("high_interval", "must be at least 1ms, got %s", c.HighInterval)
	case c.HighInterval <= c.LowInterval:
		return invalid("high_interval", "must be greater than low_interval (%s), got %s", c.LowInterval, c.HighInterval)
	case c.MaxInterval < c.HighInterval:
		return invalid("max_interval", "must be greater or equal than high_interval (%s), got %s", c.HighInterval, c.MaxInterval)
	case !validMultiplier(c.LowMultiplier):
		return invalid("low_multiplier", "must be a finite value >= 1.0, got %v", c.LowMultiplier)
	case !validMultiplier(c.HighMultiplier):
		return invalid("high_multiplier", "must be a finite value >= 1.0, got %v", c.HighMultiplier)
	}
	return nil
}

// RandomInterval draws each interval uniformly from a range whose bounds grow independently:
//
//	low  = max(lowInterval * lowMultiplier^(attempt-1), 1ms)
//	high = min(highInterval * highMultiplier^(attempt-1), maxInterval)
//
// If low outgrows high, low is clamped to high.
type RandomInterval struct {
	lowInterval    int64
	highInterval   int64
	lowMultiplier  float64
	highMultiplier float64
	maxInterval    int64
	rnd            Rand
}

// NewRandomInterval creates a random interval algorithm from cfg.
func NewRandomInterval(cfg RandomIntervalConfig) (*RandomInterval, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &RandomInterval{
		lowInterval:    toMillis(cfg.LowInterval),
		highInterval:   toMillis(cfg.HighInterval),
		lowMultiplier:  cfg.LowMultiplier,
		highMultiplier: cfg.HighMultiplier,
		maxInterval:    toMillis(cfg.MaxInterval),
		rnd:            cfg.Rand,
	}, nil
}

// Next draws the interval for the given attempt. Elapsed time is not used.
func (r *RandomInterval) Next(attempt int, _ time.Duration) Result {
	low, high := r.Bounds(attempt)
	return Delay(fromMillis(between(r.rnd, toMillis(low), toMillis(high))))
}

// Bounds returns the inclusive range the interval of the given attempt is drawn from.
func (r *RandomInterval) Bounds(attempt int) (time.Duration, time.Duration) {
	low := math.Max(grow(r.lowInterval, r.lowMultiplier, attempt), 1)
	high := math.Min(grow(r.highInterval, r.highMultiplier, attempt), float64(r.maxInterval))
	if low > high {
		low = high
	}
	return fromMillis(int64(low)), fromMillis(int64(high))
}

// Config returns the parameters the algorithm was built with.
func (r *RandomInterval) Config() RandomIntervalConfig {
	return RandomIntervalConfig{
		LowInterval:    fromMillis(r.lowInterval),
		HighInterval:   fromMillis(r.highInterval),
		LowMultiplier:  r.lowMultiplier,
		HighMultiplier: r.highMultiplier,
		MaxInterval:    fromMillis(r.maxInterval),
		Rand:           r.rnd,
	}
}

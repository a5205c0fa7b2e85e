package backoff

import (
	"math"
	"time"
)

const (
	// DefaultExponentialInterval is the first interval of the default exponential algorithm.
	DefaultExponentialInterval = 500 * time.Millisecond

	// DefaultMultiplier increases the interval by 50% on each retry.
	DefaultMultiplier = 1.5

	// BinaryMultiplier doubles the interval on each retry.
	BinaryMultiplier = 2.0

	// DefaultMaxInterval truncates intervals longer than 15 seconds.
	DefaultMaxInterval = 15 * time.Second

	// DefaultJitter picks intervals within ±20% of the computed value.
	DefaultJitter = 0.2

	// NoJitter disables randomization of the computed interval.
	NoJitter = 0.0
)

// ExponentialConfig holds the parameters of an exponential algorithm.
type ExponentialConfig struct {
	// Interval is the delay before the first retry. Must be at least 1ms.
	Interval time.Duration

	// Multiplier grows the interval on each retry. Must be >= 1.0.
	Multiplier float64

	// MaxInterval caps the computed interval. Must be >= Interval.
	// Use UnlimitedInterval to disable the cap.
	MaxInterval time.Duration

	// Jitter is the fraction of the computed interval used as random range, in [0, 1).
	// With 0.2 the interval is drawn from ±20% of the computed value.
	Jitter float64

	// Rand is the random source for jitter. Nil uses the global generator.
	Rand Rand
}

// DefaultExponentialConfig returns the default exponential configuration:
//
//	| Interval | Random range   |
//	| -------- | -------------- |
//	| 500      | (400..600)     |
//	| 750      | (600..900)     |
//	| 1125     | (900..1350)    |
//	| 1687     | (1349..2024)   |
//	| 2531     | (2024..3037)   |
//	| ...      | ...            |
//	| 12814    | (10251..15000) |
//	| 15000    | (12000..15000) |
func DefaultExponentialConfig() ExponentialConfig {
	return ExponentialConfig{
		Interval:    DefaultExponentialInterval,
		Multiplier:  DefaultMultiplier,
		MaxInterval: DefaultMaxInterval,
		Jitter:      DefaultJitter,
	}
}

// DefaultBinaryExponentialConfig returns the default exponential configuration with the
// multiplier set to BinaryMultiplier.
func DefaultBinaryExponentialConfig() ExponentialConfig {
	cfg := DefaultExponentialConfig()
	cfg.Multiplier = BinaryMultiplier
	return cfg
}

// Validate checks the configuration and returns a *ConfigError for the first violated constraint.
func (c ExponentialConfig) Validate() error {
	if c.Interval < time.Millisecond {
		return invalid("interval", "must be at least 1ms, got %s", c.Interval)
	}
	if c.MaxInterval < c.Interval {
		return invalid("max_interval", "must be greater or equal than interval (%s), got %s", c.Interval, c.MaxInterval)
	}
	if !validMultiplier(c.Multiplier) {
		return invalid("multiplier", "must be a finite value >= 1.0, got %v", c.Multiplier)
	}
	if math.IsNaN(c.Jitter) || c.Jitter < 0.0 || c.Jitter >= 1.0 {
		return invalid("jitter", "must be in [0.0, 1.0), got %v", c.Jitter)
	}
	return nil
}

// Exponential grows the interval geometrically on each retry, with optional jitter:
//
//	raw = min(interval * multiplier^(attempt-1), maxInterval)
//
// When jitter is set, the result is drawn from
// [max(raw - raw*jitter, 1ms), min(raw + raw*jitter, maxInterval)].
type Exponential struct {
	interval    int64
	multiplier  float64
	maxInterval int64
	jitter      float64
	rnd         Rand
}

// NewExponential creates an exponential algorithm from cfg.
func NewExponential(cfg ExponentialConfig) (*Exponential, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Exponential{
		interval:    toMillis(cfg.Interval),
		multiplier:  cfg.Multiplier,
		maxInterval: toMillis(cfg.MaxInterval),
		jitter:      cfg.Jitter,
		rnd:         cfg.Rand,
	}, nil
}

// NewBinaryExponential creates an exponential algorithm that doubles the interval on each retry.
// The Multiplier of cfg is ignored.
func NewBinaryExponential(cfg ExponentialConfig) (*Exponential, error) {
	cfg.Multiplier = BinaryMultiplier
	return NewExponential(cfg)
}

// Next calculates the interval for the given attempt. Elapsed time is not used.
func (e *Exponential) Next(attempt int, _ time.Duration) Result {
	next := int64(math.Min(grow(e.interval, e.multiplier, attempt), float64(e.maxInterval)))

	if e.jitter != NoJitter {
		spread := float64(next) * e.jitter
		low := int64(math.Max(float64(next)-spread, 1))
		high := int64(math.Min(float64(next)+spread, float64(e.maxInterval)))
		next = between(e.rnd, low, high)
	}

	return Delay(fromMillis(next))
}

// Config returns the parameters the algorithm was built with.
func (e *Exponential) Config() ExponentialConfig {
	return ExponentialConfig{
		Interval:    fromMillis(e.interval),
		Multiplier:  e.multiplier,
		MaxInterval: fromMillis(e.maxInterval),
		Jitter:      e.jitter,
		Rand:        e.rnd,
	}
}

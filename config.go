package backoff

import (
	"math"
	"time"
)

const (
	// DefaultMaxAttempts is the number of retries allowed when none is configured.
	DefaultMaxAttempts = 10

	// DefaultMaxElapsedTime is the cumulative wait allowed when none is configured.
	DefaultMaxElapsedTime = 60 * time.Second

	// UnlimitedAttempts disables the attempt ceiling.
	UnlimitedAttempts = math.MaxInt

	// UnlimitedElapsedTime disables the elapsed time ceiling.
	UnlimitedElapsedTime = time.Duration(math.MaxInt64)
)

// Config is the immutable description of a retry session. A single Config can build
// any number of independent sessions.
type Config struct {
	// Algorithm computes the interval before each retry.
	// Default: exponential with DefaultExponentialConfig
	Algorithm Algorithm

	// MaxAttempts is the maximum number of retries. Zero disables retrying.
	// Default: DefaultMaxAttempts
	MaxAttempts int

	// MaxElapsedTime caps the sum of all returned intervals.
	// Default: DefaultMaxElapsedTime
	MaxElapsedTime time.Duration
}

// Option customizes a Config.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of retries.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithUnlimitedAttempts removes the attempt ceiling.
func WithUnlimitedAttempts() Option {
	return WithMaxAttempts(UnlimitedAttempts)
}

// WithMaxElapsedTime sets the maximum cumulative interval.
func WithMaxElapsedTime(d time.Duration) Option {
	return func(c *Config) {
		c.MaxElapsedTime = d
	}
}

// WithUnlimitedElapsedTime removes the elapsed time ceiling.
func WithUnlimitedElapsedTime() Option {
	return WithMaxElapsedTime(UnlimitedElapsedTime)
}

// DefaultConfig returns a configuration with the default exponential algorithm,
// DefaultMaxAttempts and DefaultMaxElapsedTime.
func DefaultConfig() Config {
	return Config{
		Algorithm:      defaultAlgorithm(),
		MaxAttempts:    DefaultMaxAttempts,
		MaxElapsedTime: DefaultMaxElapsedTime,
	}
}

// NewConfig returns DefaultConfig using algorithm, with opts applied.
func NewConfig(algorithm Algorithm, opts ...Option) Config {
	cfg := DefaultConfig()
	cfg.Algorithm = algorithm
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Validate checks the ceilings and the presence of an algorithm.
func (c Config) Validate() error {
	if c.Algorithm == nil {
		return invalid("algorithm", "must not be nil")
	}
	if c.MaxAttempts < 0 {
		return invalid("max_attempts", "must be greater or equal 0, got %d", c.MaxAttempts)
	}
	if c.MaxElapsedTime < 0 {
		return invalid("max_elapsed_time", "must be greater or equal 0, got %s", c.MaxElapsedTime)
	}
	return nil
}

// New starts a fresh session from the configuration.
func (c Config) New() (*Backoff, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &Backoff{
		algorithm:   c.Algorithm,
		maxAttempts: c.MaxAttempts,
		maxElapsed:  c.MaxElapsedTime,
	}, nil
}

func defaultAlgorithm() Algorithm {
	e, err := NewExponential(DefaultExponentialConfig())
	if err != nil {
		panic(err)
	}
	return e
}

package config

import (
	"fmt"
	"time"

	"github.com/seb7887/gofw/backoff"
)

// Algorithm names accepted in configuration.
const (
	AlgorithmFixed             = "fixed"
	AlgorithmExponential       = "exponential"
	AlgorithmBinaryExponential = "binary_exponential"
	AlgorithmRandom            = "random"
)

// Backoff is the serializable form of a backoff.Config. Zero values fall back to the
// defaults of the chosen algorithm; pointer fields distinguish "unset" from a meaningful zero.
type Backoff struct {
	Algorithm string `mapstructure:"algorithm" form:"algorithm" json:"algorithm"`

	// fixed, exponential and binary_exponential
	Interval time.Duration `mapstructure:"interval" form:"interval" json:"interval,omitempty"`

	// exponential and binary_exponential
	Multiplier float64  `mapstructure:"multiplier" form:"multiplier" json:"multiplier,omitempty"`
	Jitter     *float64 `mapstructure:"jitter" form:"jitter" json:"jitter,omitempty"`

	// random
	LowInterval    time.Duration `mapstructure:"low_interval" form:"low_interval" json:"low_interval,omitempty"`
	HighInterval   time.Duration `mapstructure:"high_interval" form:"high_interval" json:"high_interval,omitempty"`
	LowMultiplier  float64       `mapstructure:"low_multiplier" form:"low_multiplier" json:"low_multiplier,omitempty"`
	HighMultiplier float64       `mapstructure:"high_multiplier" form:"high_multiplier" json:"high_multiplier,omitempty"`

	// exponential, binary_exponential and random
	MaxInterval          time.Duration `mapstructure:"max_interval" form:"max_interval" json:"max_interval,omitempty"`
	UnlimitedMaxInterval bool          `mapstructure:"unlimited_max_interval" form:"unlimited_max_interval" json:"unlimited_max_interval,omitempty"`

	MaxAttempts          *int           `mapstructure:"max_attempts" form:"max_attempts" json:"max_attempts,omitempty"`
	UnlimitedAttempts    bool           `mapstructure:"unlimited_attempts" form:"unlimited_attempts" json:"unlimited_attempts,omitempty"`
	MaxElapsedTime       *time.Duration `mapstructure:"max_elapsed_time" form:"max_elapsed_time" json:"max_elapsed_time,omitempty"`
	UnlimitedElapsedTime bool           `mapstructure:"unlimited_elapsed_time" form:"unlimited_elapsed_time" json:"unlimited_elapsed_time,omitempty"`
}

// Clone returns a copy that shares no pointers with b.
func (b Backoff) Clone() Backoff {
	if b.Jitter != nil {
		jitter := *b.Jitter
		b.Jitter = &jitter
	}
	if b.MaxAttempts != nil {
		attempts := *b.MaxAttempts
		b.MaxAttempts = &attempts
	}
	if b.MaxElapsedTime != nil {
		elapsed := *b.MaxElapsedTime
		b.MaxElapsedTime = &elapsed
	}
	return b
}

// Build validates the configuration and returns the backoff.Config it describes.
func (b Backoff) Build() (backoff.Config, error) {
	return b.BuildWithRand(nil)
}

// BuildWithRand is Build with an explicit random source for jittered algorithms.
func (b Backoff) BuildWithRand(rnd backoff.Rand) (backoff.Config, error) {
	alg, err := b.algorithm(rnd)
	if err != nil {
		return backoff.Config{}, err
	}

	opts := []backoff.Option{}
	switch {
	case b.UnlimitedAttempts:
		opts = append(opts, backoff.WithUnlimitedAttempts())
	case b.MaxAttempts != nil:
		opts = append(opts, backoff.WithMaxAttempts(*b.MaxAttempts))
	}
	switch {
	case b.UnlimitedElapsedTime:
		opts = append(opts, backoff.WithUnlimitedElapsedTime())
	case b.MaxElapsedTime != nil:
		opts = append(opts, backoff.WithMaxElapsedTime(*b.MaxElapsedTime))
	}

	cfg := backoff.NewConfig(alg, opts...)
	if err := cfg.Validate(); err != nil {
		return backoff.Config{}, err
	}
	return cfg, nil
}

func (b Backoff) algorithm(rnd backoff.Rand) (backoff.Algorithm, error) {
	switch b.Algorithm {
	case AlgorithmFixed:
		if b.Interval == 0 {
			return backoff.NewDefaultFixed(), nil
		}
		return backoff.NewFixed(b.Interval)

	case "", AlgorithmExponential, AlgorithmBinaryExponential:
		cfg := backoff.DefaultExponentialConfig()
		if b.Algorithm == AlgorithmBinaryExponential {
			cfg = backoff.DefaultBinaryExponentialConfig()
		} else if b.Multiplier != 0 {
			cfg.Multiplier = b.Multiplier
		}
		if b.Interval != 0 {
			cfg.Interval = b.Interval
		}
		cfg.MaxInterval = b.maxInterval(cfg.MaxInterval)
		if b.Jitter != nil {
			cfg.Jitter = *b.Jitter
		}
		cfg.Rand = rnd
		return backoff.NewExponential(cfg)

	case AlgorithmRandom:
		cfg := backoff.DefaultRandomIntervalConfig()
		if b.LowInterval != 0 {
			cfg.LowInterval = b.LowInterval
		}
		if b.HighInterval != 0 {
			cfg.HighInterval = b.HighInterval
		}
		if b.LowMultiplier != 0 {
			cfg.LowMultiplier = b.LowMultiplier
		}
		if b.HighMultiplier != 0 {
			cfg.HighMultiplier = b.HighMultiplier
		}
		cfg.MaxInterval = b.maxInterval(cfg.MaxInterval)
		cfg.Rand = rnd
		return backoff.NewRandomInterval(cfg)
	}

	return nil, &backoff.ConfigError{
		Field:  "algorithm",
		Reason: fmt.Sprintf("unknown algorithm %q, expected one of fixed, exponential, binary_exponential, random", b.Algorithm),
	}
}

func (b Backoff) maxInterval(def time.Duration) time.Duration {
	switch {
	case b.UnlimitedMaxInterval:
		return backoff.UnlimitedInterval
	case b.MaxInterval != 0:
		return b.MaxInterval
	}
	return def
}

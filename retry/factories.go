package retry

import (
	"time"

	"github.com/seb7887/gofw/backoff"
)

// Fixed returns a Retrier waiting interval between at most maxAttempts retries.
func Fixed(interval time.Duration, maxAttempts int, opts ...Option) (*Retrier, error) {
	alg, err := backoff.NewFixed(interval)
	if err != nil {
		return nil, err
	}
	return Of(alg, maxAttempts, opts...)
}

// Exponential returns a Retrier using the default exponential algorithm with the given multiplier.
func Exponential(multiplier float64, maxAttempts int, opts ...Option) (*Retrier, error) {
	cfg := backoff.DefaultExponentialConfig()
	cfg.Multiplier = multiplier

	alg, err := backoff.NewExponential(cfg)
	if err != nil {
		return nil, err
	}
	return Of(alg, maxAttempts, opts...)
}

// Random returns a Retrier drawing every interval from [low, high].
func Random(low, high time.Duration, maxAttempts int, opts ...Option) (*Retrier, error) {
	alg, err := backoff.NewRandomInterval(backoff.RandomIntervalConfig{
		LowInterval:    low,
		HighInterval:   high,
		LowMultiplier:  1.0,
		HighMultiplier: 1.0,
		MaxInterval:    high,
	})
	if err != nil {
		return nil, err
	}
	return Of(alg, maxAttempts, opts...)
}

// Of returns a Retrier using algorithm for at most maxAttempts retries and the default
// elapsed time ceiling.
func Of(algorithm backoff.Algorithm, maxAttempts int, opts ...Option) (*Retrier, error) {
	return New(backoff.NewConfig(algorithm, backoff.WithMaxAttempts(maxAttempts)), opts...)
}

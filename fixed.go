package backoff

import "time"

// DefaultFixedInterval is the interval used by NewDefaultFixed.
const DefaultFixedInterval = 500 * time.Millisecond

// Fixed waits the same interval before every retry.
type Fixed struct {
	interval int64
}

// NewFixed creates a fixed algorithm. The interval must be at least one millisecond.
func NewFixed(interval time.Duration) (*Fixed, error) {
	if interval < time.Millisecond {
		return nil, invalid("interval", "must be at least 1ms, got %s", interval)
	}
	return &Fixed{interval: toMillis(interval)}, nil
}

// NewDefaultFixed creates a fixed algorithm waiting DefaultFixedInterval.
func NewDefaultFixed() *Fixed {
	return &Fixed{interval: toMillis(DefaultFixedInterval)}
}

// Next returns the configured interval, regardless of attempt and elapsed time.
func (f *Fixed) Next(_ int, _ time.Duration) Result {
	return Delay(fromMillis(f.interval))
}

// Interval returns the configured interval.
func (f *Fixed) Interval() time.Duration {
	return fromMillis(f.interval)
}

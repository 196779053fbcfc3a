package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the delay before the nth re-check of a container.
// With backoff disabled every attempt waits Delay. With backoff enabled the
// pre-jitter delay for attempt n is min(Delay*Multiplier^(n-1), MaxDelay),
// and a uniformly random jitter in [0, Jitter] is added on top to avoid
// synchronized retry storms.
type Backoff struct {
	Delay       time.Duration
	Enabled     bool
	Multiplier  float64
	MaxDelay    time.Duration
	Jitter      time.Duration
	MaxAttempts int
}

// Next returns the delay before re-check attempt n (1-based), jitter included.
func (b Backoff) Next(attempt int) time.Duration {
	return b.base(attempt) + b.jitter()
}

// base returns the deterministic part of the delay for attempt n.
func (b Backoff) base(attempt int) time.Duration {
	if !b.Enabled || attempt <= 1 {
		return b.Delay
	}
	d := time.Duration(float64(b.Delay) * math.Pow(b.Multiplier, float64(attempt-1)))
	if b.MaxDelay > 0 && (d > b.MaxDelay || d < 0) {
		d = b.MaxDelay
	}
	return d
}

func (b Backoff) jitter() time.Duration {
	if b.Jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(b.Jitter) + 1))
}

// Again reports whether another attempt may be armed after attempt n.
func (b Backoff) Again(attempt int) bool {
	return b.Enabled && attempt < b.MaxAttempts
}

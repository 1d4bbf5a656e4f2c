package resilience

import (
	"context"
	"time"
)

// RetryPolicy configures retry of a failed operation. MaxRetries is the
// number of additional attempts after the first one; zero disables retry
// entirely, which is the default for TTS fetches.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DisabledRetry returns a policy that performs the operation exactly once.
func DisabledRetry() *RetryPolicy {
	return &RetryPolicy{MaxRetries: 0}
}

// NewRetryPolicy returns a policy with exponential backoff between attempts.
func NewRetryPolicy(maxRetries int, initialBackoff time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
}

// Do runs fn, retrying failures up to MaxRetries times with exponential
// backoff. It returns the last error, or ctx.Err() if the context is
// cancelled while waiting between attempts.
func (p *RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if p == nil {
		p = DisabledRetry()
	}

	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

			backoff = time.Duration(float64(backoff) * p.Multiplier)
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return lastErr
}

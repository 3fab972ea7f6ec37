package application

import "time"

const (
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 30 * time.Second
	DefaultRetryMaxDelay    = 10 * time.Minute
)

// RetryPolicy bounds automatic retries of transient task failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultRetryMaxAttempts,
		BaseDelay:   DefaultRetryBaseDelay,
		MaxDelay:    DefaultRetryMaxDelay,
	}
}

// Delay returns the wait before the attempt following the given number of failures.
func (p RetryPolicy) Delay(failures int) time.Duration {
	if failures < 1 {
		return 0
	}

	delay := p.BaseDelay
	for i := 1; i < failures; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Exhausted reports whether failures used up every attempt.
func (p RetryPolicy) Exhausted(failures int) bool {
	return p.MaxAttempts <= 0 || failures >= p.MaxAttempts
}

type retryState struct {
	failures       int
	nextAttempt    time.Time
	needsAttention bool
}

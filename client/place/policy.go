package place

import "time"

// RetryPolicy decides how often a tier re-attempts after a classified
// failure and how long it waits between attempts.
type RetryPolicy struct {
	// MaxAttempts bounds attempts per tier, first try included.
	MaxAttempts int
	// Backoff is the delay schedule; attempts beyond its length reuse the
	// last entry.
	Backoff []time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
		},
	}
}

// Retryable reports whether another attempt on the same tier is worthwhile.
// attempt counts the tries already made.
func (p RetryPolicy) Retryable(class Class, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}

	switch class {
	case ClassNetwork:
		return true
	case ClassGasOrFunds, ClassUnknown:
		return attempt < 2 // one retry
	default:
		// user-declined, rate-limited, payload-invalid: retrying cannot help
		return false
	}
}

// Delay returns the backoff before the given attempt number (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt > len(p.Backoff) {
		attempt = len(p.Backoff)
	}
	if attempt < 1 {
		attempt = 1
	}
	return p.Backoff[attempt-1]
}

// Terminal reports whether the class aborts the whole placement rather than
// falling through to the next tier: the user said no, or the ledger's
// cooldown applies to every tier equally.
func Terminal(class Class) bool {
	return class == ClassUserDeclined || class == ClassRateLimited
}

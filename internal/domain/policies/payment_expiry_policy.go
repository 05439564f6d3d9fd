package policies

import "time"

const (
	DefaultPaymentExpiry = 30 * time.Minute
	paymentExpiryMinimum = time.Minute
)

func ResolvePaymentExpiry(createdAt time.Time, ttl time.Duration) time.Time {
	if ttl < paymentExpiryMinimum {
		ttl = DefaultPaymentExpiry
	}
	return createdAt.Add(ttl)
}

// ResolveRetryBackoff returns the sleep before the next attempt. attempt is 1-based; the
// first retry waits base and each later one doubles.
func ResolveRetryBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 || base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

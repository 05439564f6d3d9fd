package policies

import (
	"testing"
	"time"
)

func TestResolvePaymentExpiryUsesTTL(t *testing.T) {
	createdAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	resolved := ResolvePaymentExpiry(createdAt, 45*time.Minute)
	if resolved.Sub(createdAt) != 45*time.Minute {
		t.Fatalf("expected 45m expiry, got %s", resolved.Sub(createdAt))
	}
}

func TestResolvePaymentExpiryFallsBackToDefault(t *testing.T) {
	createdAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	resolved := ResolvePaymentExpiry(createdAt, 0)
	if resolved.Sub(createdAt) != 30*time.Minute {
		t.Fatalf("expected 30m default, got %s", resolved.Sub(createdAt))
	}
}

func TestResolveRetryBackoffDoubles(t *testing.T) {
	expected := []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}
	for index, want := range expected {
		if got := ResolveRetryBackoff(30*time.Second, index+1); got != want {
			t.Fatalf("attempt %d: expected %s, got %s", index+1, want, got)
		}
	}
	if got := ResolveRetryBackoff(30*time.Second, 0); got != 0 {
		t.Fatalf("expected zero backoff before first attempt, got %s", got)
	}
}

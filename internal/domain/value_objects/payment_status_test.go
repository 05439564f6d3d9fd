//go:build !integration

package valueobjects

import "testing"

func TestPaymentStatusTransitions(t *testing.T) {
	allowed := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusExpired, PaymentStatusCancelled},
		PaymentStatusCancelled: {PaymentStatusCompleted},
	}
	all := []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusExpired, PaymentStatusCancelled}

	for _, from := range all {
		for _, to := range all {
			expected := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					expected = true
				}
			}
			if from.CanTransitionTo(to) != expected {
				t.Fatalf("transition %s -> %s: expected %v", from, to, expected)
			}
		}
	}
}

func TestParseCryptoTypeAndAttributionDefaults(t *testing.T) {
	crypto, appErr := ParseCryptoType("ton")
	if appErr != nil || crypto != CryptoTON {
		t.Fatalf("expected TON, got %s %+v", crypto, appErr)
	}
	if _, appErr := ParseCryptoType("DOGE"); appErr == nil {
		t.Fatalf("expected unsupported crypto error")
	}

	for _, crypto := range SupportedCryptoTypes {
		method := crypto.DefaultAttributionMethod()
		wantMemo := crypto == CryptoTON || crypto == CryptoSOL
		if (method == AttributionMemo) != wantMemo {
			t.Fatalf("unexpected attribution method %s for %s", method, crypto)
		}
	}
}

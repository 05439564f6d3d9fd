//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"cryptosub/internal/application/dto"
	"cryptosub/internal/domain/entities"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

func TestSweepPendingPaymentsVerifiesSequentially(t *testing.T) {
	h := newHarness()
	paid := h.createPayment(1, "basic", "TON")
	unpaid := h.createPayment(2, "basic", "TON")
	h.verifier.transactions = []entities.ChainTransaction{
		memoTransfer(paid.PaymentID, "4.4776", paid.CreatedAt.Add(time.Minute)),
	}
	h.clock.Advance(5 * time.Minute)
	useCase := NewSweepPendingPaymentsUseCase(h.store, h.verify, h.clock, nil)

	output, appErr := useCase.Execute(context.Background(), dto.SweepPendingPaymentsCommand{MaxAge: 24 * time.Hour})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Scanned != 2 || output.Verified != 1 || output.Pending != 1 {
		t.Fatalf("unexpected sweep output: %+v", output)
	}

	for _, id := range []string{paid.PaymentID, unpaid.PaymentID} {
		payment := h.payment(id)
		if payment.LastChecked == nil || !payment.LastChecked.Equal(h.clock.NowUTC()) {
			t.Fatalf("expected last_checked stamp on %s", id)
		}
	}
}

func TestSweepPendingPaymentsCountsExpired(t *testing.T) {
	h := newHarness()
	h.createPayment(1, "basic", "TON")
	h.clock.Advance(40 * time.Minute)
	useCase := NewSweepPendingPaymentsUseCase(h.store, h.verify, h.clock, nil)

	output, appErr := useCase.Execute(context.Background(), dto.SweepPendingPaymentsCommand{MaxAge: 24 * time.Hour})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Expired != 1 || h.verifier.callCount() != 0 {
		t.Fatalf("expected one expiry without provider calls, got %+v", output)
	}
}

func TestSweepPendingPaymentsInvalidMaxAge(t *testing.T) {
	h := newHarness()
	useCase := NewSweepPendingPaymentsUseCase(h.store, h.verify, h.clock, nil)

	_, appErr := useCase.Execute(context.Background(), dto.SweepPendingPaymentsCommand{})
	if appErr == nil || appErr.Type != apperrors.TypeValidation {
		t.Fatalf("expected validation error, got %+v", appErr)
	}
}

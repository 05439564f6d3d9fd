//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"cryptosub/internal/adapters/outbound/chainverifier"
	"cryptosub/internal/application/dto"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/keyedmutex"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type listedTransfers struct {
	transactions []entities.ChainTransaction
	calls        int
}

func (l *listedTransfers) Name() string {
	return "listed"
}

func (l *listedTransfers) Transactions(context.Context, chainverifier.Query) ([]entities.ChainTransaction, *apperrors.AppError) {
	l.calls++
	return l.transactions, nil
}

func TestVerifyPaymentUseCaseSkipsTransferClaimedBySameAmountPayment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	first := h.createPayment(1, "basic", "BTC")
	second := h.createPayment(2, "basic", "BTC")
	amount := h.payment(second.PaymentID).ExpectedAmountCrypto
	if !h.payment(first.PaymentID).ExpectedAmountCrypto.Equal(amount) {
		t.Fatalf("expected both payments to quote the same amount")
	}
	if appErr := h.store.UpdatePaymentField(ctx, first.PaymentID, portsout.PaymentFieldTransactionHash, "tx_first"); appErr != nil {
		t.Fatalf("unexpected error: %+v", appErr)
	}

	source := &listedTransfers{transactions: []entities.ChainTransaction{
		{Hash: "tx_first", Value: amount, Timestamp: second.CreatedAt.Add(2 * time.Minute), Confirmations: 3, ConfirmationsReported: true},
		{Hash: "tx_second", Value: amount, Timestamp: second.CreatedAt.Add(4 * time.Minute), Confirmations: 2, ConfirmationsReported: true},
	}}
	gateway := chainverifier.NewGatewayWithVerifiers(map[valueobjects.CryptoType]*chainverifier.Verifier{
		valueobjects.CryptoBTC: chainverifier.NewAmountTimeWindowVerifier(valueobjects.CryptoBTC, []chainverifier.Source{source}, nil),
	}, nil)
	verify := NewVerifyPaymentUseCase(h.store, gateway, keyedmutex.New(), h.activator, VerificationSettings{
		MaxAttempts:    1,
		AttemptTimeout: time.Second,
	}, h.clock, nil)

	output := verify.Execute(ctx, dto.VerifyPaymentCommand{PaymentID: second.PaymentID})

	if !output.Verified {
		t.Fatalf("expected second payment to verify with its own transfer, got %+v", output)
	}
	stored := h.payment(second.PaymentID)
	if stored.Status != valueobjects.PaymentStatusCompleted {
		t.Fatalf("expected completed status, got %s", stored.Status)
	}
	if stored.TransactionHash == nil || *stored.TransactionHash != "tx_second" {
		t.Fatalf("expected tx_second to be recorded, got %v", stored.TransactionHash)
	}
	if source.calls != 2 {
		t.Fatalf("expected one lookup plus one with the claimed hash excluded, got %d", source.calls)
	}
	if _, found, _ := h.store.GetUserSubscription(ctx, 2); !found {
		t.Fatalf("expected subscription for user 2")
	}
}

func TestVerifyPaymentUseCaseStopsAfterRepeatedClaimedTransfers(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	owner := h.createPayment(1, "basic", "BTC")
	target := h.createPayment(2, "basic", "BTC")
	amount := h.payment(target.PaymentID).ExpectedAmountCrypto
	if appErr := h.store.UpdatePaymentField(ctx, owner.PaymentID, portsout.PaymentFieldTransactionHash, "tx_owner"); appErr != nil {
		t.Fatalf("unexpected error: %+v", appErr)
	}
	h.verifier.transactions = []entities.ChainTransaction{
		{Hash: "tx_owner", Value: amount, Timestamp: target.CreatedAt.Add(time.Minute), Confirmations: 2, ConfirmationsReported: true},
	}

	output := h.verify.Execute(ctx, dto.VerifyPaymentCommand{PaymentID: target.PaymentID, MaxAttempts: 1})

	if output.Verified {
		t.Fatalf("expected no verification from a claimed transfer")
	}
	if h.verifier.callCount() != 2 {
		t.Fatalf("expected a second lookup excluding the claimed hash, got %d calls", h.verifier.callCount())
	}
	if excluded := h.verifier.inputs[1].ExcludeHashes; len(excluded) != 1 || excluded[0] != "tx_owner" {
		t.Fatalf("expected tx_owner to be excluded, got %v", excluded)
	}
}

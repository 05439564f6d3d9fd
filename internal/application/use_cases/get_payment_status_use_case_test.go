//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"cryptosub/internal/adapters/outbound/persistence/memory"
	"cryptosub/internal/application/dto"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

func TestGetPaymentStatusExpiresOnRead(t *testing.T) {
	h := newHarness()
	useCase := NewGetPaymentStatusUseCase(h.store, h.activator, h.clock)
	resource := h.createPayment(42, "basic", "TON")
	h.clock.Advance(31 * time.Minute)

	view, appErr := useCase.Execute(context.Background(), dto.GetPaymentStatusQuery{PaymentID: resource.PaymentID})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if view.Status != "expired" {
		t.Fatalf("expected expired, got %s", view.Status)
	}
	if h.payment(resource.PaymentID).Status != valueobjects.PaymentStatusExpired {
		t.Fatalf("expected stored status expired")
	}
}

func TestGetPaymentStatusRepairsCompletedPayment(t *testing.T) {
	h := newHarness()
	useCase := NewGetPaymentStatusUseCase(h.store, h.activator, h.clock)
	resource := h.createPayment(42, "enterprise", "ETH")
	_ = h.store.UpdatePaymentStatus(context.Background(), resource.PaymentID, valueobjects.PaymentStatusCompleted)

	view, appErr := useCase.Execute(context.Background(), dto.GetPaymentStatusQuery{PaymentID: resource.PaymentID})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if view.Status != "completed" {
		t.Fatalf("expected completed, got %s", view.Status)
	}
	subscription, found, _ := h.store.GetUserSubscription(context.Background(), 42)
	if !found || subscription.Tier != valueobjects.TierEnterprise {
		t.Fatalf("expected enterprise subscription after repair, got %+v", subscription)
	}
}

func TestGetPaymentStatusNotFound(t *testing.T) {
	h := newHarness()
	useCase := NewGetPaymentStatusUseCase(h.store, h.activator, h.clock)

	_, appErr := useCase.Execute(context.Background(), dto.GetPaymentStatusQuery{PaymentID: "ton_missing"})
	if appErr == nil || appErr.Type != apperrors.TypeNotFound {
		t.Fatalf("expected not_found, got %+v", appErr)
	}
}

func TestGetUserSubscriptionAndListCurrencies(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	subscriptions := NewGetUserSubscriptionUseCase(h.store, valueobjects.DefaultTierCatalog(), h.clock)

	if _, appErr := subscriptions.Execute(ctx, dto.GetUserSubscriptionQuery{UserID: 42}); appErr == nil || appErr.Type != apperrors.TypeNotFound {
		t.Fatalf("expected not_found before activation, got %+v", appErr)
	}

	_, _ = h.store.ActivateSubscription(ctx, 42, valueobjects.TierPro, 30)
	view, appErr := subscriptions.Execute(ctx, dto.GetUserSubscriptionQuery{UserID: 42})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if view.Tier != "pro" || view.AdSlots != 3 || !view.IsActive {
		t.Fatalf("unexpected subscription view: %+v", view)
	}

	currencies := NewListCurrenciesUseCase(fakeAddressBook{addresses: map[valueobjects.CryptoType]string{
		valueobjects.CryptoTON: "UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG",
	}}, valueobjects.DefaultTierCatalog())
	output, appErr := currencies.Execute(ctx, dto.ListCurrenciesQuery{})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if len(output.Currencies) != 7 || len(output.Tiers) != 3 {
		t.Fatalf("unexpected listing: %+v", output)
	}
	if !output.Currencies[0].Configured || output.Currencies[1].Configured {
		t.Fatalf("expected only TON to be configured: %+v", output.Currencies)
	}
}

// settlingRepository runs afterRead once, after handing out the stale snapshot.
type settlingRepository struct {
	*memory.Store
	afterRead func()
}

func (r *settlingRepository) GetPayment(ctx context.Context, paymentID string) (entities.Payment, bool, *apperrors.AppError) {
	payment, found, appErr := r.Store.GetPayment(ctx, paymentID)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return payment, found, appErr
}

func TestGetPaymentStatusKeepsPaymentCompletedDuringRead(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	resource := h.createPayment(42, "basic", "BTC")
	h.clock.Advance(31 * time.Minute)
	stale := h.payment(resource.PaymentID)

	repository := &settlingRepository{Store: h.store, afterRead: func() {
		if !h.activator.Activate(ctx, stale) {
			t.Errorf("expected concurrent activation to succeed")
		}
	}}
	useCase := NewGetPaymentStatusUseCase(repository, h.activator, h.clock)

	view, appErr := useCase.Execute(ctx, dto.GetPaymentStatusQuery{PaymentID: resource.PaymentID})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if view.Status != "completed" {
		t.Fatalf("expected completed view, got %s", view.Status)
	}
	if h.payment(resource.PaymentID).Status != valueobjects.PaymentStatusCompleted {
		t.Fatalf("expected stored status to stay completed, got %s", h.payment(resource.PaymentID).Status)
	}
	subscription, found, _ := h.store.GetUserSubscription(ctx, 42)
	if !found || subscription.Tier != valueobjects.TierBasic {
		t.Fatalf("expected basic subscription, got %+v found=%t", subscription, found)
	}
}

//go:build !integration

package use_cases

import (
	"context"
	"strings"
	"testing"
	"time"

	"cryptosub/internal/application/dto"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

func TestCreatePaymentRequestUseCaseEveryCurrency(t *testing.T) {
	h := newHarness()

	for _, crypto := range valueobjects.SupportedCryptoTypes {
		resource := h.createPayment(42, "basic", crypto.String())

		amount := decimal.RequireFromString(resource.ExpectedAmountCrypto)
		if !amount.IsPositive() {
			t.Fatalf("%s: expected positive amount, got %s", crypto, resource.ExpectedAmountCrypto)
		}
		if !strings.Contains(resource.PaymentURL, resource.PayToAddress) {
			t.Fatalf("%s: expected url %s to contain %s", crypto, resource.PaymentURL, resource.PayToAddress)
		}
		if !strings.HasPrefix(resource.PaymentID, strings.ToLower(crypto.String())+"_") {
			t.Fatalf("%s: expected chain-prefixed id, got %s", crypto, resource.PaymentID)
		}
		if resource.AttributionMethod != crypto.DefaultAttributionMethod().String() {
			t.Fatalf("%s: unexpected attribution method %s", crypto, resource.AttributionMethod)
		}
		if resource.ExpiresAt.Sub(resource.CreatedAt) != 30*time.Minute {
			t.Fatalf("%s: expected 30m expiry, got %s", crypto, resource.ExpiresAt.Sub(resource.CreatedAt))
		}
		if resource.Status != "pending" {
			t.Fatalf("%s: expected pending, got %s", crypto, resource.Status)
		}
	}
}

func TestCreatePaymentRequestUseCaseTonWorkedExample(t *testing.T) {
	h := newHarness()

	resource := h.createPayment(42, "basic", "TON")

	if resource.ExpectedAmountCrypto != "4.4776" {
		t.Fatalf("expected 4.4776 TON, got %s", resource.ExpectedAmountCrypto)
	}
	if !strings.Contains(resource.PaymentURL, "text="+resource.PaymentID) {
		t.Fatalf("expected ton url to carry payment id, got %s", resource.PaymentURL)
	}
	if resource.AttributionMethod != "memo" {
		t.Fatalf("expected memo attribution, got %s", resource.AttributionMethod)
	}

	stored := h.payment(resource.PaymentID)
	if stored.Status != valueobjects.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", stored.Status)
	}
}

func TestCreatePaymentRequestUseCaseStablecoinSkipsOracle(t *testing.T) {
	h := newHarness()

	resource := h.createPayment(42, "pro", "USDT")

	if resource.ExpectedAmountCrypto != "45" {
		t.Fatalf("expected 45 USDT, got %s", resource.ExpectedAmountCrypto)
	}
	if h.prices.calls != 0 {
		t.Fatalf("expected no price lookups for stablecoins, got %d", h.prices.calls)
	}
	if resource.PriceSource != "stablecoin" {
		t.Fatalf("expected stablecoin price source, got %s", resource.PriceSource)
	}
}

func TestCreatePaymentRequestUseCaseMissingWalletAddress(t *testing.T) {
	h := newHarness()
	useCase := NewCreatePaymentRequestUseCase(
		h.store,
		h.prices,
		fakeAddressBook{addresses: map[valueobjects.CryptoType]string{}},
		valueobjects.DefaultTierCatalog(),
		PaymentRequestSettings{},
		h.clock,
	)

	_, appErr := useCase.Execute(context.Background(), dto.CreatePaymentRequestCommand{
		UserID:     42,
		Tier:       "basic",
		CryptoType: "BTC",
	})
	if appErr == nil {
		t.Fatalf("expected configuration error")
	}
	if appErr.Type != apperrors.TypeConfiguration || appErr.Code != "wallet_address_not_configured" {
		t.Fatalf("expected wallet_address_not_configured, got %s/%s", appErr.Type, appErr.Code)
	}
}

func TestCreatePaymentRequestUseCaseValidation(t *testing.T) {
	h := newHarness()

	testCases := []struct {
		command dto.CreatePaymentRequestCommand
		code    string
	}{
		{command: dto.CreatePaymentRequestCommand{UserID: 0, Tier: "basic", CryptoType: "TON"}, code: "invalid_request"},
		{command: dto.CreatePaymentRequestCommand{UserID: 1, Tier: "gold", CryptoType: "TON"}, code: "unsupported_tier"},
		{command: dto.CreatePaymentRequestCommand{UserID: 1, Tier: "basic", CryptoType: "DOGE"}, code: "unsupported_crypto_type"},
	}

	for _, testCase := range testCases {
		_, appErr := h.create.Execute(context.Background(), testCase.command)
		if appErr == nil {
			t.Fatalf("expected error %s", testCase.code)
		}
		if appErr.Type != apperrors.TypeValidation || appErr.Code != testCase.code {
			t.Fatalf("expected validation %s, got %s/%s", testCase.code, appErr.Type, appErr.Code)
		}
	}
}

func TestCreatePaymentRequestUseCaseStampsRequiredConfirmations(t *testing.T) {
	h := newHarness()
	create := NewCreatePaymentRequestUseCase(h.store, h.prices, allAddresses(), valueobjects.DefaultTierCatalog(), PaymentRequestSettings{
		RequiredConfirmations: 3,
	}, h.clock)

	resource, appErr := create.Execute(context.Background(), dto.CreatePaymentRequestCommand{UserID: 7, Tier: "pro", CryptoType: "BTC"})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if confirmations := h.payment(resource.PaymentID).RequiredConfirmations; confirmations != 3 {
		t.Fatalf("expected 3 required confirmations, got %d", confirmations)
	}
}

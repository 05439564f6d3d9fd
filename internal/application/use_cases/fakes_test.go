//go:build !integration

package use_cases

import (
	"context"
	"sync"
	"time"

	"cryptosub/internal/adapters/outbound/persistence/memory"
	"cryptosub/internal/application/dto"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/keyedmutex"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) NowUTC() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(delta)
}

type fakePriceOracle struct {
	prices map[valueobjects.CryptoType]decimal.Decimal
	calls  int
}

func (f *fakePriceOracle) GetPrice(_ context.Context, crypto valueobjects.CryptoType) portsout.PriceQuote {
	f.calls++
	return portsout.PriceQuote{PriceUSD: f.prices[crypto], Source: "fake"}
}

func defaultPrices() *fakePriceOracle {
	return &fakePriceOracle{prices: map[valueobjects.CryptoType]decimal.Decimal{
		valueobjects.CryptoTON: decimal.RequireFromString("3.35"),
		valueobjects.CryptoBTC: decimal.NewFromInt(65000),
		valueobjects.CryptoETH: decimal.NewFromInt(3500),
		valueobjects.CryptoSOL: decimal.NewFromInt(150),
		valueobjects.CryptoLTC: decimal.NewFromInt(80),
	}}
}

type fakeAddressBook struct {
	addresses map[valueobjects.CryptoType]string
}

func (f fakeAddressBook) Resolve(_ context.Context, crypto valueobjects.CryptoType) (string, *apperrors.AppError) {
	address, found := f.addresses[crypto]
	if !found {
		return "", apperrors.NewConfiguration(
			"wallet_address_not_configured",
			"wallet address is not configured for crypto type",
			map[string]any{"crypto_type": crypto.String()},
		)
	}
	return address, nil
}

func (f fakeAddressBook) Configured(crypto valueobjects.CryptoType) bool {
	_, found := f.addresses[crypto]
	return found
}

func allAddresses() fakeAddressBook {
	return fakeAddressBook{addresses: map[valueobjects.CryptoType]string{
		valueobjects.CryptoTON:  "UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG",
		valueobjects.CryptoBTC:  "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7k7gt080",
		valueobjects.CryptoETH:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		valueobjects.CryptoSOL:  "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		valueobjects.CryptoLTC:  "ltc1qg82ahyqkqy8nhxn7cq2qxs9v8cxgsjzll5lj8u",
		valueobjects.CryptoUSDT: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		valueobjects.CryptoUSDC: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	}}
}

// fakeChainVerifier applies the caller's attribution strategy to a fixed transaction list.
type fakeChainVerifier struct {
	mu           sync.Mutex
	transactions []entities.ChainTransaction
	errs         []*apperrors.AppError
	manualReview bool
	block        chan struct{}
	entered      chan struct{}
	calls        int
	inputs       []dto.VerifyOnChainInput
}

func (f *fakeChainVerifier) VerifyPayment(ctx context.Context, input dto.VerifyOnChainInput) (dto.VerifyOnChainOutput, *apperrors.AppError) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.inputs = append(f.inputs, input)
	block := f.block
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return dto.VerifyOnChainOutput{}, apperrors.NewProvider("provider_request_failed", "timeout", nil)
		}
	}

	if call <= len(f.errs) && f.errs[call-1] != nil {
		return dto.VerifyOnChainOutput{}, f.errs[call-1]
	}

	expectation := input.Expectation()
	for _, tx := range f.transactions {
		if tx.Confirmations < int64(input.RequiredConfirmations) || input.Excludes(tx.Hash) {
			continue
		}
		if input.Strategy.Accepts(tx, expectation) {
			matched := tx
			return dto.VerifyOnChainOutput{Verified: true, Source: "fake", Transaction: &matched}, nil
		}
	}
	return dto.VerifyOnChainOutput{ManualReviewSuggested: f.manualReview}, nil
}

func (f *fakeChainVerifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	clock     *fixedClock
	store     *memory.Store
	prices    *fakePriceOracle
	verifier  *fakeChainVerifier
	verifyLck *keyedmutex.Set
	activator *subscriptionActivator
	create    *createPaymentRequestUseCase
	verify    *verifyPaymentUseCase
}

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newHarness() *harness {
	clock := newFixedClock(testNow)
	store := memory.NewStore(clock.NowUTC)
	prices := defaultPrices()
	verifier := &fakeChainVerifier{}
	verifyLocks := keyedmutex.New()
	catalog := valueobjects.DefaultTierCatalog()

	activator := NewSubscriptionActivator(store, store, prices, keyedmutex.New(), catalog, clock, nil).(*subscriptionActivator)
	create := NewCreatePaymentRequestUseCase(store, prices, allAddresses(), catalog, PaymentRequestSettings{}, clock).(*createPaymentRequestUseCase)
	verify := NewVerifyPaymentUseCase(store, verifier, verifyLocks, activator, VerificationSettings{
		MaxAttempts:     3,
		BackoffBase:     0,
		AttemptTimeout:  time.Second,
		ReviveCancelled: true,
	}, clock, nil).(*verifyPaymentUseCase)

	return &harness{
		clock:     clock,
		store:     store,
		prices:    prices,
		verifier:  verifier,
		verifyLck: verifyLocks,
		activator: activator,
		create:    create,
		verify:    verify,
	}
}

func (h *harness) createPayment(userID int64, tier string, crypto string) dto.PaymentRequestResource {
	resource, appErr := h.create.Execute(context.Background(), dto.CreatePaymentRequestCommand{
		UserID:     userID,
		Tier:       tier,
		CryptoType: crypto,
	})
	if appErr != nil {
		panic(appErr)
	}
	return resource
}

func (h *harness) payment(id string) entities.Payment {
	payment, _, _ := h.store.GetPayment(context.Background(), id)
	return payment
}

package use_cases

import (
	"context"
	"strings"
	"time"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	"cryptosub/internal/domain/policies"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	paymentIDEntropyLength = 24
	priceDivisionPrecision = 16
	priceSourceStablecoin  = "stablecoin"
)

type PaymentRequestSettings struct {
	Expiry                time.Duration
	RequiredConfirmations int
}

type createPaymentRequestUseCase struct {
	repository  portsout.PaymentRepository
	priceOracle portsout.PriceOracle
	addressBook portsout.WalletAddressBook
	catalog     valueobjects.TierCatalog
	settings    PaymentRequestSettings
	clock       Clock
}

func NewCreatePaymentRequestUseCase(
	repository portsout.PaymentRepository,
	priceOracle portsout.PriceOracle,
	addressBook portsout.WalletAddressBook,
	catalog valueobjects.TierCatalog,
	settings PaymentRequestSettings,
	clock Clock,
) portsin.CreatePaymentRequestUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &createPaymentRequestUseCase{
		repository:  repository,
		priceOracle: priceOracle,
		addressBook: addressBook,
		catalog:     catalog,
		settings:    settings,
		clock:       clock,
	}
}

func (u *createPaymentRequestUseCase) Execute(ctx context.Context, command dto.CreatePaymentRequestCommand) (dto.PaymentRequestResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.PaymentRequestResource{}, apperrors.NewInternal(
			"payment_repository_missing",
			"payment repository is required",
			nil,
		)
	}
	if u.priceOracle == nil {
		return dto.PaymentRequestResource{}, apperrors.NewInternal(
			"price_oracle_missing",
			"price oracle is required",
			nil,
		)
	}
	if u.addressBook == nil {
		return dto.PaymentRequestResource{}, apperrors.NewInternal(
			"wallet_address_book_missing",
			"wallet address book is required",
			nil,
		)
	}

	if command.UserID <= 0 {
		return dto.PaymentRequestResource{}, apperrors.NewValidation(
			"invalid_request",
			"user_id must be positive",
			map[string]any{"field": "user_id"},
		)
	}
	tier, appErr := valueobjects.ParseTier(command.Tier)
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}
	plan, found := u.catalog.Plan(tier)
	if !found {
		return dto.PaymentRequestResource{}, apperrors.NewValidation(
			"unsupported_tier",
			"tier is not offered",
			map[string]any{"tier": tier.String()},
		)
	}
	crypto, appErr := valueobjects.ParseCryptoType(command.CryptoType)
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}

	payTo, appErr := u.addressBook.Resolve(ctx, crypto)
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}

	expectedAmount, priceSource, appErr := u.expectedAmount(ctx, crypto, plan.PriceUSD)
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}

	paymentID, appErr := generatePaymentID(crypto)
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}
	paymentURL, appErr := valueobjects.BuildPaymentURI(crypto, payTo, expectedAmount, paymentID)
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}

	createdAt := u.clock.NowUTC()
	payment, appErr := entities.NewPendingPayment(entities.NewPaymentInput{
		ID:                    paymentID,
		UserID:                command.UserID,
		Tier:                  plan.Tier,
		AmountUSD:             plan.PriceUSD,
		CryptoType:            crypto,
		PayToAddress:          payTo,
		ExpectedAmountCrypto:  expectedAmount,
		PaymentURL:            paymentURL,
		AttributionMethod:     crypto.DefaultAttributionMethod(),
		RequiredConfirmations: u.settings.RequiredConfirmations,
		CreatedAt:             createdAt,
		ExpiresAt:             policies.ResolvePaymentExpiry(createdAt, u.settings.Expiry),
	})
	if appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}

	if appErr := u.repository.CreatePayment(ctx, payment); appErr != nil {
		return dto.PaymentRequestResource{}, appErr
	}

	return dto.PaymentRequestResource{
		PaymentID:            payment.ID,
		UserID:               payment.UserID,
		Tier:                 payment.Tier.String(),
		CryptoType:           payment.CryptoType.String(),
		AmountUSD:            payment.AmountUSD.StringFixed(2),
		ExpectedAmountCrypto: payment.ExpectedAmountCrypto.String(),
		PayToAddress:         payment.PayToAddress,
		PaymentURL:           payment.PaymentURL,
		AttributionMethod:    payment.AttributionMethod.String(),
		Status:               payment.Status.String(),
		PriceSource:          priceSource,
		CreatedAt:            payment.CreatedAt,
		ExpiresAt:            payment.ExpiresAt,
	}, nil
}

func (u *createPaymentRequestUseCase) expectedAmount(
	ctx context.Context,
	crypto valueobjects.CryptoType,
	amountUSD decimal.Decimal,
) (decimal.Decimal, string, *apperrors.AppError) {
	if crypto.IsStablecoin() {
		return amountUSD.Round(crypto.DisplayPrecision()), priceSourceStablecoin, nil
	}

	quote := u.priceOracle.GetPrice(ctx, crypto)
	if !quote.PriceUSD.IsPositive() {
		return decimal.Zero, "", apperrors.NewInternal(
			"price_unavailable",
			"price oracle returned a non-positive price",
			map[string]any{"crypto_type": crypto.String(), "source": quote.Source},
		)
	}

	amount := amountUSD.DivRound(quote.PriceUSD, priceDivisionPrecision).Round(crypto.DisplayPrecision())
	if !amount.IsPositive() {
		return decimal.Zero, "", apperrors.NewInternal(
			"expected_amount_invalid",
			"expected crypto amount rounds to zero",
			map[string]any{"crypto_type": crypto.String(), "price_usd": quote.PriceUSD.String()},
		)
	}

	return amount, quote.Source, nil
}

func generatePaymentID(crypto valueobjects.CryptoType) (string, *apperrors.AppError) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", apperrors.NewInternal(
			"payment_id_generation_failed",
			"failed to generate payment id",
			map[string]any{"error": err.Error()},
		)
	}

	entropy := strings.ReplaceAll(id.String(), "-", "")[:paymentIDEntropyLength]
	return crypto.PaymentIDPrefix() + "_" + entropy, nil
}

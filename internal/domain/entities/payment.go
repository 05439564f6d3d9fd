package entities

import (
	"strings"
	"time"

	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID                    string
	UserID                int64
	Tier                  valueobjects.Tier
	AmountUSD             decimal.Decimal
	CryptoType            valueobjects.CryptoType
	PayToAddress          string
	ExpectedAmountCrypto  decimal.Decimal
	PaymentURL            string
	AttributionMethod     valueobjects.AttributionMethod
	Status                valueobjects.PaymentStatus
	RequiredConfirmations int
	CreatedAt             time.Time
	ExpiresAt             time.Time
	LastChecked           *time.Time
	ManualVerification    bool
	VerifiedByAdmin       *string
	TransactionHash       *string
}

type NewPaymentInput struct {
	ID                    string
	UserID                int64
	Tier                  valueobjects.Tier
	AmountUSD             decimal.Decimal
	CryptoType            valueobjects.CryptoType
	PayToAddress          string
	ExpectedAmountCrypto  decimal.Decimal
	PaymentURL            string
	AttributionMethod     valueobjects.AttributionMethod
	RequiredConfirmations int
	CreatedAt             time.Time
	ExpiresAt             time.Time
}

func NewPendingPayment(input NewPaymentInput) (Payment, *apperrors.AppError) {
	if input.ID == "" {
		return Payment{}, apperrors.NewInternal(
			"payment_id_missing",
			"payment id is required",
			nil,
		)
	}
	if !strings.HasPrefix(input.ID, input.CryptoType.PaymentIDPrefix()+"_") {
		return Payment{}, apperrors.NewInternal(
			"payment_id_prefix_invalid",
			"payment id must start with the crypto type prefix",
			map[string]any{"payment_id": input.ID, "crypto_type": input.CryptoType.String()},
		)
	}
	if input.UserID <= 0 {
		return Payment{}, apperrors.NewValidation(
			"invalid_request",
			"user_id must be positive",
			map[string]any{"field": "user_id"},
		)
	}
	if input.PayToAddress == "" {
		return Payment{}, apperrors.NewInternal(
			"pay_to_address_missing",
			"pay to address is required",
			nil,
		)
	}
	if !input.ExpectedAmountCrypto.IsPositive() {
		return Payment{}, apperrors.NewInternal(
			"expected_amount_invalid",
			"expected crypto amount must be positive",
			map[string]any{"expected_amount_crypto": input.ExpectedAmountCrypto.String()},
		)
	}
	if !input.ExpiresAt.After(input.CreatedAt) {
		return Payment{}, apperrors.NewValidation(
			"invalid_request",
			"expires_at must be greater than created_at",
			map[string]any{"field": "expires_at"},
		)
	}

	requiredConfirmations := input.RequiredConfirmations
	if requiredConfirmations <= 0 {
		requiredConfirmations = 1
	}

	return Payment{
		ID:                    input.ID,
		UserID:                input.UserID,
		Tier:                  input.Tier,
		AmountUSD:             input.AmountUSD,
		CryptoType:            input.CryptoType,
		PayToAddress:          input.PayToAddress,
		ExpectedAmountCrypto:  input.ExpectedAmountCrypto,
		PaymentURL:            input.PaymentURL,
		AttributionMethod:     input.AttributionMethod,
		Status:                valueobjects.NewPendingPaymentStatus(),
		RequiredConfirmations: requiredConfirmations,
		CreatedAt:             input.CreatedAt.UTC(),
		ExpiresAt:             input.ExpiresAt.UTC(),
	}, nil
}

// IsOverdue reports whether a pending payment has passed its expiry and should flip to expired.
func (p Payment) IsOverdue(now time.Time) bool {
	return p.Status == valueobjects.PaymentStatusPending && now.After(p.ExpiresAt)
}

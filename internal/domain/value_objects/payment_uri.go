package valueobjects

import (
	"fmt"
	"net/url"

	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a whole-coin amount into the chain's smallest unit, truncating dust.
func ToBaseUnits(crypto CryptoType, amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(crypto.BaseUnitDecimals()).Truncate(0)
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(crypto CryptoType, baseUnits decimal.Decimal) decimal.Decimal {
	return baseUnits.Shift(-crypto.BaseUnitDecimals())
}

func BuildPaymentURI(crypto CryptoType, address string, amount decimal.Decimal, paymentID string) (string, *apperrors.AppError) {
	if address == "" || !amount.IsPositive() {
		return "", apperrors.NewInternal(
			"payment_uri_input_invalid",
			"payment uri requires an address and a positive amount",
			map[string]any{"crypto_type": crypto.String()},
		)
	}

	switch crypto {
	case CryptoTON:
		return fmt.Sprintf(
			"ton://transfer/%s?amount=%s&text=%s",
			address,
			ToBaseUnits(crypto, amount).String(),
			url.QueryEscape(paymentID),
		), nil
	case CryptoBTC:
		return fmt.Sprintf("bitcoin:%s?amount=%s", address, amount.String()), nil
	case CryptoLTC:
		return fmt.Sprintf("litecoin:%s?amount=%s", address, amount.String()), nil
	case CryptoETH:
		return fmt.Sprintf("ethereum:%s?value=%s", address, ToBaseUnits(crypto, amount).String()), nil
	case CryptoSOL:
		return fmt.Sprintf(
			"solana:%s?amount=%s&memo=%s",
			address,
			amount.String(),
			url.QueryEscape(paymentID),
		), nil
	case CryptoUSDT, CryptoUSDC:
		return fmt.Sprintf(
			"ethereum:%s/transfer?address=%s&uint256=%s",
			crypto.TokenContract(),
			address,
			ToBaseUnits(crypto, amount).String(),
		), nil
	default:
		return "", apperrors.NewValidation(
			"unsupported_crypto_type",
			"crypto_type is not supported",
			map[string]any{"crypto_type": crypto.String()},
		)
	}
}

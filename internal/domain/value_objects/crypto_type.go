package valueobjects

import (
	"strings"

	apperrors "cryptosub/internal/shared_kernel/errors"
)

type CryptoType string

const (
	CryptoTON  CryptoType = "TON"
	CryptoBTC  CryptoType = "BTC"
	CryptoETH  CryptoType = "ETH"
	CryptoSOL  CryptoType = "SOL"
	CryptoLTC  CryptoType = "LTC"
	CryptoUSDT CryptoType = "USDT"
	CryptoUSDC CryptoType = "USDC"
)

type cryptoSpec struct {
	chain            string
	baseUnitDecimals int32
	displayPrecision int32
	stablecoin       bool
	tokenContract    string
	attribution      AttributionMethod
}

var cryptoSpecs = map[CryptoType]cryptoSpec{
	CryptoTON:  {chain: "ton", baseUnitDecimals: 9, displayPrecision: 4, attribution: AttributionMemo},
	CryptoBTC:  {chain: "bitcoin", baseUnitDecimals: 8, displayPrecision: 8, attribution: AttributionAmountTimeWindow},
	CryptoETH:  {chain: "ethereum", baseUnitDecimals: 18, displayPrecision: 8, attribution: AttributionAmountTimeWindow},
	CryptoSOL:  {chain: "solana", baseUnitDecimals: 9, displayPrecision: 4, attribution: AttributionMemo},
	CryptoLTC:  {chain: "litecoin", baseUnitDecimals: 8, displayPrecision: 8, attribution: AttributionAmountTimeWindow},
	CryptoUSDT: {chain: "ethereum", baseUnitDecimals: 6, displayPrecision: 2, stablecoin: true, tokenContract: "0xdAC17F958D2ee523a2206206994597C13D831ec7", attribution: AttributionAmountTimeWindow},
	CryptoUSDC: {chain: "ethereum", baseUnitDecimals: 6, displayPrecision: 2, stablecoin: true, tokenContract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", attribution: AttributionAmountTimeWindow},
}

// SupportedCryptoTypes is ordered for stable listings.
var SupportedCryptoTypes = []CryptoType{
	CryptoTON,
	CryptoBTC,
	CryptoETH,
	CryptoSOL,
	CryptoLTC,
	CryptoUSDT,
	CryptoUSDC,
}

func ParseCryptoType(raw string) (CryptoType, *apperrors.AppError) {
	normalized := CryptoType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, exists := cryptoSpecs[normalized]; !exists {
		return "", apperrors.NewValidation(
			"unsupported_crypto_type",
			"crypto_type is not supported",
			map[string]any{"crypto_type": raw},
		)
	}

	return normalized, nil
}

func (c CryptoType) String() string {
	return string(c)
}

func (c CryptoType) Chain() string {
	return cryptoSpecs[c].chain
}

// BaseUnitDecimals is the exponent between one whole coin and its smallest on-chain unit.
func (c CryptoType) BaseUnitDecimals() int32 {
	return cryptoSpecs[c].baseUnitDecimals
}

func (c CryptoType) DisplayPrecision() int32 {
	return cryptoSpecs[c].displayPrecision
}

func (c CryptoType) IsStablecoin() bool {
	return cryptoSpecs[c].stablecoin
}

func (c CryptoType) IsERC20() bool {
	return c == CryptoUSDT || c == CryptoUSDC
}

// TokenContract is the mainnet ERC-20 contract for token currencies and empty otherwise.
func (c CryptoType) TokenContract() string {
	return cryptoSpecs[c].tokenContract
}

func (c CryptoType) DefaultAttributionMethod() AttributionMethod {
	return cryptoSpecs[c].attribution
}

// PaymentIDPrefix is the lowercase chain prefix every payment id starts with.
func (c CryptoType) PaymentIDPrefix() string {
	return strings.ToLower(string(c))
}

//go:build !integration

package valueobjects

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildPaymentURIPerCurrency(t *testing.T) {
	testCases := []struct {
		crypto   CryptoType
		address  string
		amount   string
		expected string
	}{
		{
			crypto:   CryptoTON,
			address:  "UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG",
			amount:   "4.4776",
			expected: "ton://transfer/UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG?amount=4477600000&text=ton_abc",
		},
		{
			crypto:   CryptoBTC,
			address:  "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7k7gt080",
			amount:   "0.00023077",
			expected: "bitcoin:bc1qw508d6qejxtdg4y5r3zarvary0c5xw7k7gt080?amount=0.00023077",
		},
		{
			crypto:   CryptoLTC,
			address:  "LVg2kJoFNg45Nbpy53h7Fe1wKyeXVRhMH9",
			amount:   "0.1875",
			expected: "litecoin:LVg2kJoFNg45Nbpy53h7Fe1wKyeXVRhMH9?amount=0.1875",
		},
		{
			crypto:   CryptoETH,
			address:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			amount:   "0.00428571",
			expected: "ethereum:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed?value=4285710000000000",
		},
		{
			crypto:   CryptoSOL,
			address:  "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
			amount:   "0.1",
			expected: "solana:9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM?amount=0.1&memo=ton_abc",
		},
		{
			crypto:   CryptoUSDT,
			address:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			amount:   "15",
			expected: "ethereum:0xdAC17F958D2ee523a2206206994597C13D831ec7/transfer?address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed&uint256=15000000",
		},
	}

	for _, testCase := range testCases {
		uri, appErr := BuildPaymentURI(testCase.crypto, testCase.address, decimal.RequireFromString(testCase.amount), "ton_abc")
		if appErr != nil {
			t.Fatalf("expected no error for %s, got %+v", testCase.crypto, appErr)
		}
		if uri != testCase.expected {
			t.Fatalf("expected %s, got %s", testCase.expected, uri)
		}
		if !strings.Contains(uri, testCase.address) {
			t.Fatalf("expected uri to contain address %s", testCase.address)
		}
	}
}

func TestBuildPaymentURIRejectsZeroAmount(t *testing.T) {
	if _, appErr := BuildPaymentURI(CryptoBTC, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7k7gt080", decimal.Zero, "btc_abc"); appErr == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	base := ToBaseUnits(CryptoETH, decimal.RequireFromString("1.5"))
	if base.String() != "1500000000000000000" {
		t.Fatalf("unexpected wei amount: %s", base)
	}
	if !FromBaseUnits(CryptoETH, base).Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected round trip to 1.5")
	}
}

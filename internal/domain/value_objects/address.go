package valueobjects

import (
	"regexp"
	"strings"

	apperrors "cryptosub/internal/shared_kernel/errors"

	"golang.org/x/crypto/sha3"
)

var (
	evmAddressPattern     = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	btcBech32Pattern      = regexp.MustCompile(`^(bc1|tb1|bcrt1)[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{11,87}$`)
	ltcBech32Pattern      = regexp.MustCompile(`^(ltc1|tltc1|rltc1)[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{11,87}$`)
	base58AddressPattern  = regexp.MustCompile(`^[123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz]{26,35}$`)
	solanaAddressPattern  = regexp.MustCompile(`^[123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz]{32,44}$`)
	tonFriendlyPattern    = regexp.MustCompile(`^[A-Za-z0-9_\-+/]{48}$`)
	tonRawAddressPattern  = regexp.MustCompile(`^-?[0-9]+:[0-9a-fA-F]{64}$`)
	ltcBase58PrefixSymbol = "LM3Q"
)

// NormalizeWalletAddress validates a configured receiving address for the currency and
// returns the form used in payment URIs and explorer queries.
func NormalizeWalletAddress(crypto CryptoType, address string) (string, *apperrors.AppError) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", apperrors.NewConfiguration(
			"wallet_address_not_configured",
			"wallet address is not configured for crypto type",
			map[string]any{"crypto_type": crypto.String()},
		)
	}

	invalid := apperrors.NewConfiguration(
		"wallet_address_invalid",
		"wallet address is invalid for crypto type",
		map[string]any{"crypto_type": crypto.String()},
	)

	switch crypto {
	case CryptoETH, CryptoUSDT, CryptoUSDC:
		if !evmAddressPattern.MatchString(trimmed) {
			return "", invalid
		}
		checksummed, appErr := ToEIP55Checksum(trimmed)
		if appErr != nil {
			return "", appErr
		}
		if hasMixedCase(strings.TrimPrefix(trimmed, "0x")) && checksummed != trimmed {
			return "", apperrors.NewConfiguration(
				"wallet_address_checksum_mismatch",
				"ethereum wallet address fails EIP-55 checksum",
				map[string]any{"crypto_type": crypto.String()},
			)
		}
		return checksummed, nil
	case CryptoBTC:
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "bc1") || strings.HasPrefix(lower, "tb1") || strings.HasPrefix(lower, "bcrt1") {
			if !btcBech32Pattern.MatchString(lower) {
				return "", invalid
			}
			return lower, nil
		}
		if !base58AddressPattern.MatchString(trimmed) {
			return "", invalid
		}
		return trimmed, nil
	case CryptoLTC:
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "ltc1") || strings.HasPrefix(lower, "tltc1") || strings.HasPrefix(lower, "rltc1") {
			if !ltcBech32Pattern.MatchString(lower) {
				return "", invalid
			}
			return lower, nil
		}
		if !base58AddressPattern.MatchString(trimmed) || !strings.ContainsAny(trimmed[:1], ltcBase58PrefixSymbol) {
			return "", invalid
		}
		return trimmed, nil
	case CryptoSOL:
		if !solanaAddressPattern.MatchString(trimmed) {
			return "", invalid
		}
		return trimmed, nil
	case CryptoTON:
		if !tonFriendlyPattern.MatchString(trimmed) && !tonRawAddressPattern.MatchString(trimmed) {
			return "", invalid
		}
		return trimmed, nil
	default:
		return "", apperrors.NewValidation(
			"unsupported_crypto_type",
			"crypto_type is not supported",
			map[string]any{"crypto_type": crypto.String()},
		)
	}
}

// SameAddress compares two addresses of the same chain, ignoring case only where the chain
// encoding is case-insensitive.
func SameAddress(crypto CryptoType, a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch crypto {
	case CryptoETH, CryptoUSDT, CryptoUSDC:
		return strings.EqualFold(a, b)
	case CryptoBTC, CryptoLTC:
		if isBech32Like(a) {
			return strings.EqualFold(a, b)
		}
		return a == b
	default:
		return a == b
	}
}

func ToEIP55Checksum(address string) (string, *apperrors.AppError) {
	normalized := "0x" + strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(address), "0x")))
	if !evmAddressPattern.MatchString(normalized) {
		return "", apperrors.NewInternal(
			"address_canonical_invalid",
			"canonical ethereum address is invalid",
			map[string]any{"address": address},
		)
	}

	hexPart := strings.TrimPrefix(normalized, "0x")
	hash := sha3.NewLegacyKeccak256()
	if _, err := hash.Write([]byte(hexPart)); err != nil {
		return "", apperrors.NewInternal(
			"address_checksum_hash_failed",
			"failed to hash address for checksum",
			map[string]any{"error": err.Error()},
		)
	}
	checksumBytes := hash.Sum(nil)

	out := make([]byte, len(hexPart))
	for i := 0; i < len(hexPart); i++ {
		ch := hexPart[i]
		if ch >= '0' && ch <= '9' {
			out[i] = ch
			continue
		}

		var nibble byte
		if i%2 == 0 {
			nibble = (checksumBytes[i/2] >> 4) & 0x0f
		} else {
			nibble = checksumBytes[i/2] & 0x0f
		}

		if nibble >= 8 {
			out[i] = ch - ('a' - 'A')
		} else {
			out[i] = ch
		}
	}

	return "0x" + string(out), nil
}

func hasMixedCase(value string) bool {
	return strings.ToLower(value) != value && strings.ToUpper(value) != value
}

func isBech32Like(value string) bool {
	lower := strings.ToLower(value)
	return btcBech32Pattern.MatchString(lower) || ltcBech32Pattern.MatchString(lower)
}

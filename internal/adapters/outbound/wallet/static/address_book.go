package static

import (
	"context"
	"log"
	"sort"
	"strings"

	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/addresscodec"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type entry struct {
	address string
	err     *apperrors.AppError
}

// AddressBook serves one receiving wallet per currency from configuration. Entries are
// normalised once at startup; a malformed entry keeps failing on every Resolve.
type AddressBook struct {
	entries map[valueobjects.CryptoType]entry
	logger  *log.Logger
}

var _ portsout.WalletAddressBook = (*AddressBook)(nil)

func NewAddressBook(addresses map[valueobjects.CryptoType]string, logger *log.Logger) *AddressBook {
	book := &AddressBook{
		entries: make(map[valueobjects.CryptoType]entry, len(addresses)),
		logger:  logger,
	}

	cryptos := make([]valueobjects.CryptoType, 0, len(addresses))
	for crypto := range addresses {
		cryptos = append(cryptos, crypto)
	}
	sort.Slice(cryptos, func(i, j int) bool { return cryptos[i] < cryptos[j] })

	for _, crypto := range cryptos {
		raw := strings.TrimSpace(addresses[crypto])
		if raw == "" {
			continue
		}
		normalized, appErr := valueobjects.NormalizeWalletAddress(crypto, raw)
		if appErr != nil {
			book.entries[crypto] = entry{err: appErr}
			book.logf("wallet_address_rejected crypto_type=%s code=%s", crypto, appErr.Code)
			continue
		}
		if codecErr := verifyChecksum(crypto, normalized); codecErr != nil {
			book.entries[crypto] = entry{err: apperrors.NewConfiguration(
				"wallet_address_checksum_invalid",
				"wallet address fails checksum verification",
				map[string]any{"crypto_type": crypto.String(), "reason": string(codecErr.Code)},
			)}
			book.logf("wallet_address_rejected crypto_type=%s code=%s reason=%s", crypto, codecErr.Code, codecErr.Message)
			continue
		}
		book.entries[crypto] = entry{address: normalized}
	}
	return book
}

// verifyChecksum decodes addresses whose encoding carries a checksum. EVM checksums are
// handled during normalisation and TON addresses are accepted as configured.
func verifyChecksum(crypto valueobjects.CryptoType, address string) *addresscodec.CodecError {
	switch crypto {
	case valueobjects.CryptoBTC:
		return addresscodec.VerifyUTXOAddress(addresscodec.Bitcoin, address)
	case valueobjects.CryptoLTC:
		return addresscodec.VerifyUTXOAddress(addresscodec.Litecoin, address)
	case valueobjects.CryptoSOL:
		return addresscodec.VerifySolanaAddress(address)
	default:
		return nil
	}
}

func (b *AddressBook) Resolve(_ context.Context, crypto valueobjects.CryptoType) (string, *apperrors.AppError) {
	current, ok := b.entries[crypto]
	if !ok {
		return "", apperrors.NewConfiguration(
			"wallet_address_not_configured",
			"no wallet address is configured for this currency",
			map[string]any{"crypto_type": crypto.String()},
		)
	}
	if current.err != nil {
		return "", current.err
	}
	return current.address, nil
}

func (b *AddressBook) Configured(crypto valueobjects.CryptoType) bool {
	current, ok := b.entries[crypto]
	return ok && current.err == nil
}

// ConfiguredCryptoTypes lists usable currencies in catalogue order.
func (b *AddressBook) ConfiguredCryptoTypes() []valueobjects.CryptoType {
	out := make([]valueobjects.CryptoType, 0, len(b.entries))
	for _, crypto := range valueobjects.SupportedCryptoTypes {
		if b.Configured(crypto) {
			out = append(out, crypto)
		}
	}
	return out
}

func (b *AddressBook) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

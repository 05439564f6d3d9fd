package addresscodec

import "strings"

// UTXONetwork lists the encodings a Bitcoin-family chain accepts for receiving addresses.
type UTXONetwork struct {
	Name           string
	SegWitHRPs     []string
	Base58Versions []byte
}

var (
	Bitcoin = UTXONetwork{
		Name:       "bitcoin",
		SegWitHRPs: []string{"bc", "tb", "bcrt"},
		// P2PKH and P2SH for mainnet then testnet.
		Base58Versions: []byte{0x00, 0x05, 0x6f, 0xc4},
	}
	Litecoin = UTXONetwork{
		Name:       "litecoin",
		SegWitHRPs: []string{"ltc", "tltc", "rltc"},
		// L, M and legacy 3 on mainnet; m/n and Q on testnet.
		Base58Versions: []byte{0x30, 0x32, 0x05, 0x6f, 0x3a},
	}
)

const (
	base58HashLength   = 20
	solanaPublicKeyLen = 32
)

// VerifyUTXOAddress checks the checksum of a base58check or segwit address and that it
// belongs to the network.
func VerifyUTXOAddress(network UTXONetwork, address string) *CodecError {
	address = strings.TrimSpace(address)
	lower := strings.ToLower(address)
	for _, hrp := range network.SegWitHRPs {
		if !strings.HasPrefix(lower, hrp+"1") {
			continue
		}
		decodedHRP, _, _, codecErr := DecodeSegWitAddress(address)
		if codecErr != nil {
			return codecErr
		}
		if decodedHRP != hrp {
			return newCodecError(CodeWrongNetwork, "segwit prefix does not belong to "+network.Name)
		}
		return nil
	}

	version, hash, codecErr := DecodeBase58Check(address)
	if codecErr != nil {
		return codecErr
	}
	if len(hash) != base58HashLength {
		return newCodecError(CodeMalformed, "base58check address must carry a 20 byte hash")
	}
	for _, accepted := range network.Base58Versions {
		if version == accepted {
			return nil
		}
	}
	return newCodecError(CodeWrongNetwork, "base58 version byte does not belong to "+network.Name)
}

// VerifySolanaAddress checks that the address decodes to a 32 byte ed25519 public key.
func VerifySolanaAddress(address string) *CodecError {
	decoded, codecErr := DecodeBase58(strings.TrimSpace(address))
	if codecErr != nil {
		return codecErr
	}
	if len(decoded) != solanaPublicKeyLen {
		return newCodecError(CodeMalformed, "solana address must decode to 32 bytes")
	}
	return nil
}

package addresscodec

import (
	"crypto/sha256"
	"math/big"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var bigFiftyEight = big.NewInt(58)

// DecodeBase58 decodes the Bitcoin base58 alphabet, keeping leading zero bytes.
func DecodeBase58(input string) ([]byte, *CodecError) {
	if input == "" {
		return nil, newCodecError(CodeMalformed, "base58 input is empty")
	}

	value := big.NewInt(0)
	for i := 0; i < len(input); i++ {
		index := int64(-1)
		for j := 0; j < len(base58Alphabet); j++ {
			if base58Alphabet[j] == input[i] {
				index = int64(j)
				break
			}
		}
		if index < 0 {
			return nil, newCodecError(CodeMalformed, "base58 input contains an invalid character")
		}

		value.Mul(value, bigFiftyEight)
		value.Add(value, big.NewInt(index))
	}

	decoded := value.Bytes()
	leadingZeroes := 0
	for leadingZeroes < len(input) && input[leadingZeroes] == '1' {
		leadingZeroes++
	}

	out := make([]byte, leadingZeroes+len(decoded))
	copy(out[leadingZeroes:], decoded)
	return out, nil
}

// DecodeBase58Check verifies the trailing double-SHA256 checksum and returns the version
// byte and the remaining payload.
func DecodeBase58Check(input string) (byte, []byte, *CodecError) {
	decoded, codecErr := DecodeBase58(input)
	if codecErr != nil {
		return 0, nil, codecErr
	}
	if len(decoded) < 5 {
		return 0, nil, newCodecError(CodeMalformed, "base58check payload too short")
	}

	payload := decoded[:len(decoded)-4]
	checksum := decoded[len(decoded)-4:]
	expected := checksum4(payload)
	if checksum[0] != expected[0] || checksum[1] != expected[1] || checksum[2] != expected[2] || checksum[3] != expected[3] {
		return 0, nil, newCodecError(CodeChecksumMismatch, "base58check checksum mismatch")
	}

	return payload[0], payload[1:], nil
}

func checksum4(payload []byte) [4]byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return [4]byte{second[0], second[1], second[2], second[3]}
}

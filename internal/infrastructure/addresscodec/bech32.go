package addresscodec

import (
	"strings"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const (
	bech32Constant  uint32 = 1
	bech32mConstant uint32 = 0x2bc830a3
	bech32MaxLength        = 90
)

var bech32Generator = [5]uint32{
	0x3b6a57b2,
	0x26508e6d,
	0x1ea119fa,
	0x3d4233dd,
	0x2a1462b3,
}

func bech32Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, value := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(value)
		for i := 0; i < len(bech32Generator); i++ {
			if ((top >> uint(i)) & 1) == 1 {
				chk ^= bech32Generator[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	expanded := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		expanded = append(expanded, hrp[i]>>5)
	}
	expanded = append(expanded, 0)
	for i := 0; i < len(hrp); i++ {
		expanded = append(expanded, hrp[i]&31)
	}
	return expanded
}

// decodeBech32 splits an address into its human readable part and 5-bit data, returning
// the checksum constant it verified against.
func decodeBech32(address string) (string, []byte, uint32, *CodecError) {
	if len(address) > bech32MaxLength {
		return "", nil, 0, newCodecError(CodeMalformed, "bech32 address is too long")
	}
	if strings.ToLower(address) != address && strings.ToUpper(address) != address {
		return "", nil, 0, newCodecError(CodeMalformed, "bech32 address mixes upper and lower case")
	}
	address = strings.ToLower(address)

	separator := strings.LastIndexByte(address, '1')
	if separator < 1 || separator+7 > len(address) {
		return "", nil, 0, newCodecError(CodeMalformed, "bech32 separator is misplaced")
	}

	hrp := address[:separator]
	data := make([]byte, 0, len(address)-separator-1)
	for i := separator + 1; i < len(address); i++ {
		index := strings.IndexByte(bech32Charset, address[i])
		if index < 0 {
			return "", nil, 0, newCodecError(CodeMalformed, "bech32 data contains an invalid character")
		}
		data = append(data, byte(index))
	}

	constant := bech32Polymod(append(bech32HRPExpand(hrp), data...))
	if constant != bech32Constant && constant != bech32mConstant {
		return "", nil, 0, newCodecError(CodeChecksumMismatch, "bech32 checksum mismatch")
	}

	return hrp, data[:len(data)-6], constant, nil
}

func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, *CodecError) {
	var (
		accumulator uint
		bits        uint
		maxValue    = uint((1 << toBits) - 1)
	)
	out := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)

	for _, value := range data {
		if uint(value)>>fromBits != 0 {
			return nil, newCodecError(CodeMalformed, "value out of range")
		}
		accumulator = (accumulator << fromBits) | uint(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((accumulator>>bits)&maxValue))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((accumulator<<(toBits-bits))&maxValue))
		}
	} else if bits >= fromBits || ((accumulator<<(toBits-bits))&maxValue) != 0 {
		return nil, newCodecError(CodeMalformed, "invalid padding")
	}

	return out, nil
}

// DecodeSegWitAddress validates a BIP-173/BIP-350 address and returns its human readable
// part, witness version and witness program.
func DecodeSegWitAddress(address string) (string, byte, []byte, *CodecError) {
	hrp, data, constant, codecErr := decodeBech32(address)
	if codecErr != nil {
		return "", 0, nil, codecErr
	}
	if len(data) < 1 {
		return "", 0, nil, newCodecError(CodeMalformed, "segwit address has no witness version")
	}

	witnessVersion := data[0]
	if witnessVersion > 16 {
		return "", 0, nil, newCodecError(CodeMalformed, "witness version out of range")
	}
	// v0 uses the original bech32 constant, every later version uses bech32m.
	if (witnessVersion == 0) != (constant == bech32Constant) {
		return "", 0, nil, newCodecError(CodeChecksumMismatch, "checksum variant does not match witness version")
	}

	program, codecErr := convertBits(data[1:], 5, 8, false)
	if codecErr != nil {
		return "", 0, nil, codecErr
	}
	if len(program) < 2 || len(program) > 40 {
		return "", 0, nil, newCodecError(CodeMalformed, "witness program length out of range")
	}
	if witnessVersion == 0 && len(program) != 20 && len(program) != 32 {
		return "", 0, nil, newCodecError(CodeMalformed, "v0 witness program must be 20 or 32 bytes")
	}

	return hrp, witnessVersion, program, nil
}

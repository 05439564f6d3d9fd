package addresscodec

type ErrorCode string

const (
	CodeMalformed        ErrorCode = "address_malformed"
	CodeChecksumMismatch ErrorCode = "address_checksum_mismatch"
	CodeWrongNetwork     ErrorCode = "address_wrong_network"
)

type CodecError struct {
	Code    ErrorCode
	Message string
}

func (e *CodecError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func newCodecError(code ErrorCode, message string) *CodecError {
	return &CodecError{
		Code:    code,
		Message: message,
	}
}

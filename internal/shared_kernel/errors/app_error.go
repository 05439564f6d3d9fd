package apperrors

type Type string

const (
	TypeValidation    Type = "validation"
	TypeNotFound      Type = "not_found"
	TypeConflict      Type = "conflict"
	TypeUnauthorized  Type = "unauthorized"
	TypeConfiguration Type = "configuration"
	TypeProvider      Type = "provider"
	TypeInternal      Type = "internal"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return newAppError(TypeInternal, code, message, details)
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return newAppError(TypeValidation, code, message, details)
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return newAppError(TypeNotFound, code, message, details)
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConflict, code, message, details)
}

func NewUnauthorized(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUnauthorized, code, message, details)
}

// NewConfiguration reports a deployment problem, such as a currency without a wallet address.
func NewConfiguration(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConfiguration, code, message, details)
}

// NewProvider reports a failed call to an external price or explorer API.
func NewProvider(code, message string, details map[string]any) *AppError {
	return newAppError(TypeProvider, code, message, details)
}

func newAppError(errorType Type, code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: details,
	}
}

package controllers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/go-playground/validator/v10"
)

var payloadValidator = newPayloadValidator()

// newPayloadValidator reports fields by their JSON names.
func newPayloadValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// decodePayload reads a single JSON object into dst. An empty body is accepted only when
// allowEmpty is set, leaving dst at its zero value.
func decodePayload(body io.Reader, dst any, allowEmpty bool) *apperrors.AppError {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && stderrors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.NewValidation(
			"invalid_request",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}

	if err := decoder.Decode(&struct{}{}); !stderrors.Is(err, io.EOF) {
		return apperrors.NewValidation(
			"invalid_request",
			"request body must contain a single JSON object",
			nil,
		)
	}

	return validatePayload(dst)
}

func validatePayload(payload any) *apperrors.AppError {
	err := payloadValidator.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		return apperrors.NewValidation("invalid_request", "request payload is invalid", map[string]any{"error": err.Error()})
	}

	fields := make(map[string]any, len(validationErrs))
	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		field := fieldErr.Field()
		fields[field] = fieldErr.Tag()
		if fieldErr.Tag() == "required" {
			messages = append(messages, field+" is required")
		} else {
			messages = append(messages, field+" is invalid")
		}
	}

	return apperrors.NewValidation("invalid_request", strings.Join(messages, "; "), map[string]any{"fields": fields})
}

func parseUserID(raw string) (int64, *apperrors.AppError) {
	userID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperrors.NewValidation(
			"invalid_user_id",
			"user id must be a positive integer",
			map[string]any{"user_id": raw},
		)
	}
	return userID, nil
}

package policies

import (
	"strings"
	"time"

	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

const (
	DefaultPaymentTolerance = "0.03"
	DefaultTimeWindowWidth  = 60 * time.Minute
	DefaultMemoWindow       = 2 * time.Hour
)

type PaymentExpectation struct {
	PaymentID      string
	ExpectedAmount decimal.Decimal
	CreatedAt      time.Time
}

func ExpectationForPayment(payment entities.Payment) PaymentExpectation {
	return PaymentExpectation{
		PaymentID:      payment.ID,
		ExpectedAmount: payment.ExpectedAmountCrypto,
		CreatedAt:      payment.CreatedAt,
	}
}

type AttributionStrategy interface {
	Method() valueobjects.AttributionMethod
	Accepts(tx entities.ChainTransaction, expectation PaymentExpectation) bool
}

type AttributionSettings struct {
	Tolerance       decimal.Decimal
	TimeWindowWidth time.Duration
	MemoWindow      time.Duration
}

func DefaultAttributionSettings() AttributionSettings {
	return AttributionSettings{
		Tolerance:       decimal.RequireFromString(DefaultPaymentTolerance),
		TimeWindowWidth: DefaultTimeWindowWidth,
		MemoWindow:      DefaultMemoWindow,
	}
}

func NewAttributionStrategy(method valueobjects.AttributionMethod, settings AttributionSettings) (AttributionStrategy, *apperrors.AppError) {
	if settings.Tolerance.IsNegative() || settings.Tolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, apperrors.NewInternal(
			"attribution_tolerance_invalid",
			"payment tolerance must be in [0, 1)",
			map[string]any{"tolerance": settings.Tolerance.String()},
		)
	}

	switch method {
	case valueobjects.AttributionMemo:
		return MemoStrategy{Tolerance: settings.Tolerance, Window: settings.MemoWindow}, nil
	case valueobjects.AttributionAmountTimeWindow:
		return AmountTimeWindowStrategy{Tolerance: settings.Tolerance, Width: settings.TimeWindowWidth}, nil
	default:
		return nil, apperrors.NewInternal(
			"attribution_method_invalid",
			"attribution method is invalid",
			map[string]any{"attribution_method": method.String()},
		)
	}
}

// MemoStrategy relies on the payment id carried in the transfer comment; the time window
// only guards against ancient transfers.
type MemoStrategy struct {
	Tolerance decimal.Decimal
	Window    time.Duration
}

func (MemoStrategy) Method() valueobjects.AttributionMethod {
	return valueobjects.AttributionMemo
}

func (s MemoStrategy) Accepts(tx entities.ChainTransaction, expectation PaymentExpectation) bool {
	if !WithinAmountBand(tx.Value, expectation.ExpectedAmount, s.Tolerance) {
		return false
	}
	if expectation.PaymentID == "" || !strings.Contains(tx.Memo, expectation.PaymentID) {
		return false
	}
	if s.Window > 0 && !WithinWindow(tx.Timestamp, expectation.CreatedAt, s.Window) {
		return false
	}
	return true
}

// AmountTimeWindowStrategy matches on amount and arrival time alone. Width is the total
// window, centred on the payment creation time.
type AmountTimeWindowStrategy struct {
	Tolerance decimal.Decimal
	Width     time.Duration
}

func (AmountTimeWindowStrategy) Method() valueobjects.AttributionMethod {
	return valueobjects.AttributionAmountTimeWindow
}

func (s AmountTimeWindowStrategy) Accepts(tx entities.ChainTransaction, expectation PaymentExpectation) bool {
	if !WithinAmountBand(tx.Value, expectation.ExpectedAmount, s.Tolerance) {
		return false
	}
	return WithinWindow(tx.Timestamp, expectation.CreatedAt, s.Width/2)
}

func WithinAmountBand(value, required, tolerance decimal.Decimal) bool {
	if !required.IsPositive() {
		return false
	}
	one := decimal.NewFromInt(1)
	lower := required.Mul(one.Sub(tolerance))
	upper := required.Mul(one.Add(tolerance))
	return value.GreaterThanOrEqual(lower) && value.LessThanOrEqual(upper)
}

// WithinWindow is inclusive on both edges.
func WithinWindow(at, center time.Time, halfWidth time.Duration) bool {
	if at.IsZero() {
		return false
	}
	return !at.Before(center.Add(-halfWidth)) && !at.After(center.Add(halfWidth))
}

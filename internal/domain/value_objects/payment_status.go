package valueobjects

import apperrors "cryptosub/internal/shared_kernel/errors"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func NewPendingPaymentStatus() PaymentStatus {
	return PaymentStatusPending
}

func ParsePaymentStatus(raw string) (PaymentStatus, *apperrors.AppError) {
	switch raw {
	case string(PaymentStatusPending):
		return PaymentStatusPending, nil
	case string(PaymentStatusCompleted):
		return PaymentStatusCompleted, nil
	case string(PaymentStatusExpired):
		return PaymentStatusExpired, nil
	case string(PaymentStatusCancelled):
		return PaymentStatusCancelled, nil
	default:
		return "", apperrors.NewInternal(
			"payment_status_invalid",
			"payment status is invalid",
			map[string]any{"status": raw},
		)
	}
}

// CanTransitionTo encodes the payment lifecycle. Cancelled payments may still be completed
// when on-chain evidence shows up later.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusCompleted || next == PaymentStatusExpired || next == PaymentStatusCancelled
	case PaymentStatusCancelled:
		return next == PaymentStatusCompleted
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	return string(s)
}

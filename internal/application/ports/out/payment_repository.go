package out

import (
	"context"
	"time"

	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type PaymentField string

const (
	PaymentFieldManualVerification PaymentField = "manual_verification"
	PaymentFieldVerifiedByAdmin    PaymentField = "verified_by_admin"
	PaymentFieldTransactionHash    PaymentField = "transaction_hash"
	PaymentFieldAmountUSD          PaymentField = "amount_usd"
)

// PaymentStatusConflictCode is returned by UpdatePaymentStatus when a payment that is no longer
// pending is asked to expire.
const PaymentStatusConflictCode = "payment_status_conflict"

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment entities.Payment) *apperrors.AppError
	GetPayment(ctx context.Context, paymentID string) (entities.Payment, bool, *apperrors.AppError)
	UpdatePaymentStatus(ctx context.Context, paymentID string, status valueobjects.PaymentStatus) *apperrors.AppError
	UpdatePaymentField(ctx context.Context, paymentID string, field PaymentField, value any) *apperrors.AppError
	GetPendingPayments(ctx context.Context, maxAge time.Duration) ([]entities.Payment, *apperrors.AppError)
	UpdatePaymentLastChecked(ctx context.Context, paymentID string, checkedAt time.Time) *apperrors.AppError
	FindPaymentByTransactionHash(ctx context.Context, transactionHash string) (entities.Payment, bool, *apperrors.AppError)
}

type SubscriptionRepository interface {
	ActivateSubscription(ctx context.Context, userID int64, tier valueobjects.Tier, durationDays int) (entities.Subscription, *apperrors.AppError)
	GetUserSubscription(ctx context.Context, userID int64) (entities.Subscription, bool, *apperrors.AppError)
}

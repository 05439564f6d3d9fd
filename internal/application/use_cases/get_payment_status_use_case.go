package use_cases

import (
	"context"
	"strings"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type getPaymentStatusUseCase struct {
	payments  portsout.PaymentRepository
	activator portsin.SubscriptionActivator
	clock     Clock
}

func NewGetPaymentStatusUseCase(
	payments portsout.PaymentRepository,
	activator portsin.SubscriptionActivator,
	clock Clock,
) portsin.GetPaymentStatusUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &getPaymentStatusUseCase{
		payments:  payments,
		activator: activator,
		clock:     clock,
	}
}

func (u *getPaymentStatusUseCase) Execute(ctx context.Context, query dto.GetPaymentStatusQuery) (dto.PaymentStatusView, *apperrors.AppError) {
	if u.payments == nil {
		return dto.PaymentStatusView{}, apperrors.NewInternal(
			"payment_repository_missing",
			"payment repository is required",
			nil,
		)
	}

	payment, appErr := loadPayment(ctx, u.payments, query.PaymentID)
	if appErr != nil {
		return dto.PaymentStatusView{}, appErr
	}

	if payment.IsOverdue(u.clock.NowUTC()) {
		appErr := u.payments.UpdatePaymentStatus(ctx, payment.ID, valueobjects.PaymentStatusExpired)
		if appErr == nil {
			payment.Status = valueobjects.PaymentStatusExpired
			return toPaymentStatusView(payment), nil
		}
		if appErr.Code != portsout.PaymentStatusConflictCode {
			return dto.PaymentStatusView{}, appErr
		}
		// Settled between the read and the expiry write; report what was stored.
		payment, appErr = loadPayment(ctx, u.payments, payment.ID)
		if appErr != nil {
			return dto.PaymentStatusView{}, appErr
		}
	}

	if payment.Status == valueobjects.PaymentStatusCompleted && u.activator != nil {
		u.activator.Activate(ctx, payment)
	}
	return toPaymentStatusView(payment), nil
}

func loadPayment(ctx context.Context, payments portsout.PaymentRepository, rawID string) (entities.Payment, *apperrors.AppError) {
	paymentID := strings.TrimSpace(rawID)
	if paymentID == "" {
		return entities.Payment{}, apperrors.NewValidation(
			"invalid_request",
			"payment_id is required",
			map[string]any{"field": "payment_id"},
		)
	}

	payment, found, appErr := payments.GetPayment(ctx, paymentID)
	if appErr != nil {
		return entities.Payment{}, appErr
	}
	if !found {
		return entities.Payment{}, apperrors.NewNotFound(
			"payment_not_found",
			"payment not found",
			map[string]any{"payment_id": paymentID},
		)
	}

	return payment, nil
}

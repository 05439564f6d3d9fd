package use_cases

import (
	"context"
	"log"
	"strings"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type adminCancelPaymentUseCase struct {
	payments portsout.PaymentRepository
	locker   portsout.KeyedLocker
	logger   *log.Logger
}

// NewAdminCancelPaymentUseCase shares the verification locker so a cancel never races an
// in-flight verification of the same payment.
func NewAdminCancelPaymentUseCase(
	payments portsout.PaymentRepository,
	locker portsout.KeyedLocker,
	logger *log.Logger,
) portsin.AdminCancelPaymentUseCase {
	return &adminCancelPaymentUseCase{
		payments: payments,
		locker:   locker,
		logger:   logger,
	}
}

func (u *adminCancelPaymentUseCase) Execute(ctx context.Context, command dto.AdminCancelPaymentCommand) (dto.PaymentStatusView, *apperrors.AppError) {
	if u.payments == nil || u.locker == nil {
		return dto.PaymentStatusView{}, apperrors.NewInternal(
			"admin_cancel_dependencies_missing",
			"payment repository and locker are required",
			nil,
		)
	}
	adminID := strings.TrimSpace(command.AdminID)
	if adminID == "" {
		return dto.PaymentStatusView{}, apperrors.NewValidation(
			"invalid_request",
			"admin_id is required",
			map[string]any{"field": "admin_id"},
		)
	}

	release, acquired := u.locker.TryLock(strings.TrimSpace(command.PaymentID))
	if !acquired {
		return dto.PaymentStatusView{}, apperrors.NewConflict(
			"payment_verification_in_progress",
			"payment is being verified, retry shortly",
			map[string]any{"payment_id": command.PaymentID},
		)
	}
	defer release()

	payment, appErr := loadPayment(ctx, u.payments, command.PaymentID)
	if appErr != nil {
		return dto.PaymentStatusView{}, appErr
	}
	if !payment.Status.CanTransitionTo(valueobjects.PaymentStatusCancelled) {
		return dto.PaymentStatusView{}, apperrors.NewConflict(
			"payment_status_conflict",
			"only pending payments can be cancelled",
			map[string]any{"payment_id": payment.ID, "status": payment.Status.String()},
		)
	}

	if appErr := u.payments.UpdatePaymentField(ctx, payment.ID, portsout.PaymentFieldVerifiedByAdmin, adminID); appErr != nil {
		return dto.PaymentStatusView{}, appErr
	}
	if appErr := u.payments.UpdatePaymentStatus(ctx, payment.ID, valueobjects.PaymentStatusCancelled); appErr != nil {
		return dto.PaymentStatusView{}, appErr
	}
	logf(u.logger, "payment_cancelled payment_id=%s admin_id=%s", payment.ID, adminID)

	payment.Status = valueobjects.PaymentStatusCancelled
	payment.VerifiedByAdmin = &adminID
	return toPaymentStatusView(payment), nil
}

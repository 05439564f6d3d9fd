package use_cases

import (
	"context"
	"log"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type sweepPendingPaymentsUseCase struct {
	payments portsout.PaymentRepository
	verify   portsin.VerifyPaymentUseCase
	clock    Clock
	logger   *log.Logger
}

func NewSweepPendingPaymentsUseCase(
	payments portsout.PaymentRepository,
	verify portsin.VerifyPaymentUseCase,
	clock Clock,
	logger *log.Logger,
) portsin.SweepPendingPaymentsUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &sweepPendingPaymentsUseCase{
		payments: payments,
		verify:   verify,
		clock:    clock,
		logger:   logger,
	}
}

func (u *sweepPendingPaymentsUseCase) Execute(ctx context.Context, command dto.SweepPendingPaymentsCommand) (dto.SweepPendingPaymentsOutput, *apperrors.AppError) {
	if u.payments == nil {
		return dto.SweepPendingPaymentsOutput{}, apperrors.NewInternal(
			"payment_repository_missing",
			"payment repository is required",
			nil,
		)
	}
	if u.verify == nil {
		return dto.SweepPendingPaymentsOutput{}, apperrors.NewInternal(
			"verify_payment_use_case_missing",
			"verify payment use case is required",
			nil,
		)
	}
	if command.MaxAge <= 0 {
		return dto.SweepPendingPaymentsOutput{}, apperrors.NewValidation(
			"sweep_max_age_invalid",
			"sweep max age must be greater than zero",
			map[string]any{"max_age": command.MaxAge.String()},
		)
	}

	payments, appErr := u.payments.GetPendingPayments(ctx, command.MaxAge)
	if appErr != nil {
		return dto.SweepPendingPaymentsOutput{}, appErr
	}

	output := dto.SweepPendingPaymentsOutput{Scanned: len(payments)}
	for _, payment := range payments {
		if ctx.Err() != nil {
			break
		}

		if appErr := u.payments.UpdatePaymentLastChecked(ctx, payment.ID, u.clock.NowUTC()); appErr != nil {
			output.Errors++
			logf(
				u.logger,
				"sweep_last_checked_failed payment_id=%s code=%s message=%s",
				payment.ID,
				appErr.Code,
				appErr.Message,
			)
		}

		result := u.verify.Execute(ctx, dto.VerifyPaymentCommand{
			PaymentID: payment.ID,
			Trigger:   dto.VerifyTriggerPoller,
		})
		switch {
		case result.Verified:
			output.Verified++
		case result.Status == valueobjects.PaymentStatusExpired.String():
			output.Expired++
		default:
			output.Pending++
		}
	}

	return output, nil
}

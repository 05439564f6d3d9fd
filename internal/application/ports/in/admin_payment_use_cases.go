package in

import (
	"context"

	"cryptosub/internal/application/dto"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type AdminCompletePaymentUseCase interface {
	Execute(ctx context.Context, command dto.AdminCompletePaymentCommand) (dto.AdminCompletePaymentOutput, *apperrors.AppError)
}

type AdminCancelPaymentUseCase interface {
	Execute(ctx context.Context, command dto.AdminCancelPaymentCommand) (dto.PaymentStatusView, *apperrors.AppError)
}

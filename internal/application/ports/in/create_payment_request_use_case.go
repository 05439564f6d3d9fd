package in

import (
	"context"

	"cryptosub/internal/application/dto"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type CreatePaymentRequestUseCase interface {
	Execute(ctx context.Context, command dto.CreatePaymentRequestCommand) (dto.PaymentRequestResource, *apperrors.AppError)
}

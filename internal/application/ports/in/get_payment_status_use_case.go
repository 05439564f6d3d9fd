package in

import (
	"context"

	"cryptosub/internal/application/dto"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type GetPaymentStatusUseCase interface {
	Execute(ctx context.Context, query dto.GetPaymentStatusQuery) (dto.PaymentStatusView, *apperrors.AppError)
}

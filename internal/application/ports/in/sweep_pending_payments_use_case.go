package in

import (
	"context"

	"cryptosub/internal/application/dto"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type SweepPendingPaymentsUseCase interface {
	Execute(ctx context.Context, command dto.SweepPendingPaymentsCommand) (dto.SweepPendingPaymentsOutput, *apperrors.AppError)
}

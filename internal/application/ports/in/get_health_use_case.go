package in

import (
	"context"

	"cryptosub/internal/application/dto"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type GetHealthUseCase interface {
	Execute(ctx context.Context, command dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError)
}

package use_cases

import (
	"context"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	"cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type getHealthUseCase struct{}

func NewGetHealthUseCase() portsin.GetHealthUseCase {
	return &getHealthUseCase{}
}

func (u *getHealthUseCase) Execute(_ context.Context, _ dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError) {
	status := valueobjects.NewHealthyStatus()

	return dto.HealthOutput{
		Status: status.String(),
	}, nil
}

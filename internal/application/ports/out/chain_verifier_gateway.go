package out

import (
	"context"

	"cryptosub/internal/application/dto"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type ChainVerifierGateway interface {
	VerifyPayment(ctx context.Context, input dto.VerifyOnChainInput) (dto.VerifyOnChainOutput, *apperrors.AppError)
}

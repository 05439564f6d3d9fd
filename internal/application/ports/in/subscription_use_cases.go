package in

import (
	"context"

	"cryptosub/internal/application/dto"
	"cryptosub/internal/domain/entities"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type GetUserSubscriptionUseCase interface {
	Execute(ctx context.Context, query dto.GetUserSubscriptionQuery) (dto.SubscriptionView, *apperrors.AppError)
}

type ListCurrenciesUseCase interface {
	Execute(ctx context.Context, query dto.ListCurrenciesQuery) (dto.ListCurrenciesOutput, *apperrors.AppError)
}

// SubscriptionActivator turns a paid payment into an active subscription. It is idempotent
// and is the single place that repairs a completed payment whose subscription write was lost.
type SubscriptionActivator interface {
	Activate(ctx context.Context, payment entities.Payment) bool
}

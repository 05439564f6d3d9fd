package use_cases

import (
	"context"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type getUserSubscriptionUseCase struct {
	subscriptions portsout.SubscriptionRepository
	catalog       valueobjects.TierCatalog
	clock         Clock
}

func NewGetUserSubscriptionUseCase(
	subscriptions portsout.SubscriptionRepository,
	catalog valueobjects.TierCatalog,
	clock Clock,
) portsin.GetUserSubscriptionUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &getUserSubscriptionUseCase{
		subscriptions: subscriptions,
		catalog:       catalog,
		clock:         clock,
	}
}

func (u *getUserSubscriptionUseCase) Execute(ctx context.Context, query dto.GetUserSubscriptionQuery) (dto.SubscriptionView, *apperrors.AppError) {
	if u.subscriptions == nil {
		return dto.SubscriptionView{}, apperrors.NewInternal(
			"subscription_repository_missing",
			"subscription repository is required",
			nil,
		)
	}
	if query.UserID <= 0 {
		return dto.SubscriptionView{}, apperrors.NewValidation(
			"invalid_request",
			"user_id must be positive",
			map[string]any{"field": "user_id"},
		)
	}

	subscription, found, appErr := u.subscriptions.GetUserSubscription(ctx, query.UserID)
	if appErr != nil {
		return dto.SubscriptionView{}, appErr
	}
	if !found {
		return dto.SubscriptionView{}, apperrors.NewNotFound(
			"subscription_not_found",
			"user has no subscription",
			map[string]any{"user_id": query.UserID},
		)
	}

	view := dto.SubscriptionView{
		UserID:    subscription.UserID,
		Tier:      subscription.Tier.String(),
		ExpiresAt: subscription.ExpiresAt,
		IsActive:  subscription.IsActive(u.clock.NowUTC()),
	}
	if plan, found := u.catalog.Plan(subscription.Tier); found {
		view.AdSlots = plan.AdSlots
	}
	return view, nil
}

package use_cases

import (
	"context"
	"log"
	"time"

	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
)

type subscriptionActivator struct {
	payments      portsout.PaymentRepository
	subscriptions portsout.SubscriptionRepository
	priceOracle   portsout.PriceOracle
	locker        portsout.KeyedLocker
	catalog       valueobjects.TierCatalog
	clock         Clock
	logger        *log.Logger
}

// NewSubscriptionActivator takes a locker distinct from the verification lock set, since
// activation runs while the verification lock is held.
func NewSubscriptionActivator(
	payments portsout.PaymentRepository,
	subscriptions portsout.SubscriptionRepository,
	priceOracle portsout.PriceOracle,
	locker portsout.KeyedLocker,
	catalog valueobjects.TierCatalog,
	clock Clock,
	logger *log.Logger,
) portsin.SubscriptionActivator {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &subscriptionActivator{
		payments:      payments,
		subscriptions: subscriptions,
		priceOracle:   priceOracle,
		locker:        locker,
		catalog:       catalog,
		clock:         clock,
		logger:        logger,
	}
}

func (a *subscriptionActivator) Activate(ctx context.Context, payment entities.Payment) bool {
	if a.payments == nil || a.subscriptions == nil || a.locker == nil {
		logf(a.logger, "activation_failed payment_id=%s code=activator_dependencies_missing", payment.ID)
		return false
	}

	release, acquired := a.locker.TryLock(payment.ID)
	if !acquired {
		logf(a.logger, "activation_lock_busy payment_id=%s", payment.ID)
		return false
	}
	defer release()

	current, found, appErr := a.payments.GetPayment(ctx, payment.ID)
	if appErr != nil {
		a.logFailure(payment.ID, appErr)
		return false
	}
	if !found {
		logf(a.logger, "activation_failed payment_id=%s code=payment_not_found", payment.ID)
		return false
	}

	amountUSD, amountSource := a.resolveAmountUSD(ctx, current)
	plan, matched := a.catalog.TierForAmount(amountUSD)
	if !matched {
		logf(
			a.logger,
			"tier_amount_unmatched payment_id=%s amount_usd=%s amount_source=%s fallback_tier=%s",
			current.ID,
			amountUSD.String(),
			amountSource,
			plan.Tier,
		)
	}

	if current.Status == valueobjects.PaymentStatusCompleted {
		applied, appErr := a.activationApplied(ctx, current, plan)
		if appErr != nil {
			a.logFailure(current.ID, appErr)
			return false
		}
		if applied {
			return true
		}
		logf(a.logger, "activation_reconcile payment_id=%s user_id=%d reason=subscription_inactive", current.ID, current.UserID)
	}

	if amountSource != amountSourceStored {
		if appErr := a.payments.UpdatePaymentField(ctx, current.ID, portsout.PaymentFieldAmountUSD, amountUSD); appErr != nil {
			a.logFailure(current.ID, appErr)
			return false
		}
	}

	if current.Status != valueobjects.PaymentStatusCompleted {
		if appErr := a.payments.UpdatePaymentStatus(ctx, current.ID, valueobjects.PaymentStatusCompleted); appErr != nil {
			a.logFailure(current.ID, appErr)
			return false
		}
	}

	subscription, appErr := a.subscriptions.ActivateSubscription(ctx, current.UserID, plan.Tier, plan.DurationDays)
	if appErr != nil {
		a.logFailure(current.ID, appErr)
		return false
	}

	logf(
		a.logger,
		"subscription_activated payment_id=%s user_id=%d tier=%s expires_at=%s",
		current.ID,
		subscription.UserID,
		subscription.Tier,
		subscription.ExpiresAt.Format(time.RFC3339),
	)
	return true
}

// activationApplied reports whether this payment's activation already reached the
// subscription. Overwrites only ever push expiry forward from a later "now", so an expiry at
// or past created_at+duration means the write happened, even if the subscription has since
// lapsed.
func (a *subscriptionActivator) activationApplied(ctx context.Context, payment entities.Payment, plan valueobjects.TierPlan) (bool, *apperrors.AppError) {
	subscription, found, appErr := a.subscriptions.GetUserSubscription(ctx, payment.UserID)
	if appErr != nil {
		return false, appErr
	}
	if !found {
		return false, nil
	}
	if subscription.IsActive(a.clock.NowUTC()) {
		return true, nil
	}

	earliestExpiry := payment.CreatedAt.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	return !subscription.ExpiresAt.Before(earliestExpiry), nil
}

const (
	amountSourceStored     = "stored"
	amountSourceRecomputed = "recomputed"
	amountSourceDefault    = "default_basic"
)

func (a *subscriptionActivator) resolveAmountUSD(ctx context.Context, payment entities.Payment) (decimal.Decimal, string) {
	if payment.AmountUSD.IsPositive() {
		return payment.AmountUSD, amountSourceStored
	}

	if a.priceOracle != nil && payment.ExpectedAmountCrypto.IsPositive() {
		quote := a.priceOracle.GetPrice(ctx, payment.CryptoType)
		if quote.PriceUSD.IsPositive() {
			return payment.ExpectedAmountCrypto.Mul(quote.PriceUSD).Round(2), amountSourceRecomputed
		}
	}

	return a.catalog.Basic().PriceUSD, amountSourceDefault
}

func (a *subscriptionActivator) logFailure(paymentID string, appErr *apperrors.AppError) {
	logf(
		a.logger,
		"activation_failed payment_id=%s code=%s message=%s details=%v",
		paymentID,
		appErr.Code,
		appErr.Message,
		appErr.Details,
	)
}

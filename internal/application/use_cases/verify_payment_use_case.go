package use_cases

import (
	"context"
	"log"
	"time"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/domain/entities"
	"cryptosub/internal/domain/policies"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

const (
	defaultVerifyMaxAttempts    = 3
	defaultVerifyBackoffBase    = 30 * time.Second
	defaultVerifyAttemptTimeout = 60 * time.Second
	maxClaimedExclusions        = 8
)

type VerificationSettings struct {
	MaxAttempts     int
	BackoffBase     time.Duration
	AttemptTimeout  time.Duration
	ReviveCancelled bool
	Attribution     policies.AttributionSettings
}

type verifyPaymentUseCase struct {
	payments  portsout.PaymentRepository
	verifier  portsout.ChainVerifierGateway
	locker    portsout.KeyedLocker
	activator portsin.SubscriptionActivator
	settings  VerificationSettings
	clock     Clock
	logger    *log.Logger
	sleep     func(ctx context.Context, delay time.Duration) bool
}

func NewVerifyPaymentUseCase(
	payments portsout.PaymentRepository,
	verifier portsout.ChainVerifierGateway,
	locker portsout.KeyedLocker,
	activator portsin.SubscriptionActivator,
	settings VerificationSettings,
	clock Clock,
	logger *log.Logger,
) portsin.VerifyPaymentUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = defaultVerifyMaxAttempts
	}
	if settings.BackoffBase < 0 {
		settings.BackoffBase = defaultVerifyBackoffBase
	}
	if settings.AttemptTimeout <= 0 {
		settings.AttemptTimeout = defaultVerifyAttemptTimeout
	}
	if settings.Attribution.Tolerance.IsZero() && settings.Attribution.TimeWindowWidth == 0 {
		settings.Attribution = policies.DefaultAttributionSettings()
	}

	return &verifyPaymentUseCase{
		payments:  payments,
		verifier:  verifier,
		locker:    locker,
		activator: activator,
		settings:  settings,
		clock:     clock,
		logger:    logger,
		sleep:     sleepContext,
	}
}

func (u *verifyPaymentUseCase) Execute(ctx context.Context, command dto.VerifyPaymentCommand) dto.VerifyPaymentOutput {
	output := dto.VerifyPaymentOutput{PaymentID: command.PaymentID}
	if u.payments == nil || u.verifier == nil || u.locker == nil || u.activator == nil {
		logf(u.logger, "verification_skipped payment_id=%s reason=dependencies_missing", command.PaymentID)
		return output
	}

	release, acquired := u.locker.TryLock(command.PaymentID)
	if !acquired {
		logf(u.logger, "verification_lock_busy payment_id=%s trigger=%s", command.PaymentID, command.Trigger)
		return output
	}
	defer release()

	payment, found, appErr := u.payments.GetPayment(ctx, command.PaymentID)
	if appErr != nil {
		u.logError("verification_load_failed", command.PaymentID, appErr)
		return output
	}
	if !found {
		logf(u.logger, "verification_skipped payment_id=%s reason=payment_not_found", command.PaymentID)
		return output
	}
	output.Status = payment.Status.String()

	switch payment.Status {
	case valueobjects.PaymentStatusCompleted:
		output.Verified = u.activator.Activate(ctx, payment)
		return output
	case valueobjects.PaymentStatusExpired:
		return output
	case valueobjects.PaymentStatusCancelled:
		if !u.settings.ReviveCancelled {
			return output
		}
		output.Verified = u.reviveCancelled(ctx, payment)
		if output.Verified {
			output.Status = valueobjects.PaymentStatusCompleted.String()
		}
		return output
	case valueobjects.PaymentStatusPending:
	default:
		return output
	}

	if payment.IsOverdue(u.clock.NowUTC()) {
		if appErr := u.payments.UpdatePaymentStatus(ctx, payment.ID, valueobjects.PaymentStatusExpired); appErr != nil {
			u.logError("payment_expire_failed", payment.ID, appErr)
			if appErr.Code == portsout.PaymentStatusConflictCode {
				if current, found, _ := u.payments.GetPayment(ctx, payment.ID); found {
					output.Status = current.Status.String()
				}
			}
			return output
		}
		logf(u.logger, "payment_expired payment_id=%s expires_at=%s", payment.ID, payment.ExpiresAt.Format(time.RFC3339))
		output.Status = valueobjects.PaymentStatusExpired.String()
		return output
	}

	strategy, appErr := policies.NewAttributionStrategy(payment.AttributionMethod, u.settings.Attribution)
	if appErr != nil {
		u.logError("verification_strategy_invalid", payment.ID, appErr)
		return output
	}

	maxAttempts := u.settings.MaxAttempts
	if command.MaxAttempts > 0 && command.MaxAttempts < maxAttempts {
		maxAttempts = command.MaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := policies.ResolveRetryBackoff(u.settings.BackoffBase, attempt-1)
			if !u.sleep(ctx, delay) {
				logf(u.logger, "verification_cancelled payment_id=%s attempt=%d", payment.ID, attempt)
				return output
			}
		}

		result, ok := u.matchUnclaimed(ctx, payment, strategy, attempt)
		if !ok {
			continue
		}
		if result.ManualReviewSuggested && !payment.ManualVerification {
			payment.ManualVerification = u.flagManualReview(ctx, payment)
		}
		if !result.Verified {
			continue
		}

		output.Verified = u.completeWithMatch(ctx, payment, result)
		if output.Verified {
			output.Status = valueobjects.PaymentStatusCompleted.String()
		}
		return output
	}

	logf(
		u.logger,
		"verification_exhausted payment_id=%s attempts=%d status=%s",
		payment.ID,
		maxAttempts,
		payment.Status,
	)
	return output
}

// reviveCancelled gives a cancelled payment one chance: a later on-chain match overrides the
// cancellation.
func (u *verifyPaymentUseCase) reviveCancelled(ctx context.Context, payment entities.Payment) bool {
	strategy, appErr := policies.NewAttributionStrategy(payment.AttributionMethod, u.settings.Attribution)
	if appErr != nil {
		u.logError("verification_strategy_invalid", payment.ID, appErr)
		return false
	}

	result, ok := u.matchUnclaimed(ctx, payment, strategy, 1)
	if !ok || !result.Verified {
		return false
	}

	logf(
		u.logger,
		"cancelled_payment_revived payment_id=%s user_id=%d tx_hash=%s source=%s",
		payment.ID,
		payment.UserID,
		result.TransactionHash(),
		result.Source,
	)
	return u.completeWithMatch(ctx, payment, result)
}

// matchUnclaimed repeats the chain lookup while the match belongs to another payment, excluding
// each claimed hash so a later transfer of the same amount can still be attributed.
func (u *verifyPaymentUseCase) matchUnclaimed(
	ctx context.Context,
	payment entities.Payment,
	strategy policies.AttributionStrategy,
	attempt int,
) (dto.VerifyOnChainOutput, bool) {
	var excluded []string
	for {
		result, ok := u.attempt(ctx, payment, strategy, attempt, excluded)
		hash := result.TransactionHash()
		if !ok || !result.Verified || hash == "" {
			return result, ok
		}

		owner, claimed, appErr := u.payments.FindPaymentByTransactionHash(ctx, hash)
		if appErr != nil {
			u.logError("transaction_lookup_failed", payment.ID, appErr)
			return dto.VerifyOnChainOutput{}, false
		}
		if !claimed || owner.ID == payment.ID {
			return result, true
		}

		logf(
			u.logger,
			"transaction_already_claimed payment_id=%s tx_hash=%s claimed_by=%s",
			payment.ID,
			hash,
			owner.ID,
		)
		if len(excluded) >= maxClaimedExclusions {
			return dto.VerifyOnChainOutput{AdvisorySources: result.AdvisorySources}, true
		}
		excluded = append(excluded, hash)
	}
}

func (u *verifyPaymentUseCase) attempt(
	ctx context.Context,
	payment entities.Payment,
	strategy policies.AttributionStrategy,
	attempt int,
	excluded []string,
) (dto.VerifyOnChainOutput, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, u.settings.AttemptTimeout)
	defer cancel()

	result, appErr := u.verifier.VerifyPayment(attemptCtx, dto.VerifyOnChainInput{
		PaymentID:             payment.ID,
		CryptoType:            payment.CryptoType,
		PayToAddress:          payment.PayToAddress,
		ExpectedAmount:        payment.ExpectedAmountCrypto,
		CreatedAt:             payment.CreatedAt,
		RequiredConfirmations: payment.RequiredConfirmations,
		Strategy:              strategy,
		ExcludeHashes:         excluded,
	})
	if appErr != nil {
		logf(
			u.logger,
			"verification_attempt_failed payment_id=%s attempt=%d code=%s message=%s",
			payment.ID,
			attempt,
			appErr.Code,
			appErr.Message,
		)
		return dto.VerifyOnChainOutput{}, false
	}

	logf(
		u.logger,
		"verification_attempt payment_id=%s crypto_type=%s attempt=%d verified=%t source=%s advisory_sources=%v",
		payment.ID,
		payment.CryptoType,
		attempt,
		result.Verified,
		result.Source,
		result.AdvisorySources,
	)
	return result, true
}

// completeWithMatch expects a match that matchUnclaimed already checked against other payments.
func (u *verifyPaymentUseCase) completeWithMatch(ctx context.Context, payment entities.Payment, result dto.VerifyOnChainOutput) bool {
	hash := result.TransactionHash()
	if hash != "" && (payment.TransactionHash == nil || *payment.TransactionHash != hash) {
		if appErr := u.payments.UpdatePaymentField(ctx, payment.ID, portsout.PaymentFieldTransactionHash, hash); appErr != nil {
			u.logError("transaction_hash_write_failed", payment.ID, appErr)
			return false
		}
	}

	return u.activator.Activate(ctx, payment)
}

func (u *verifyPaymentUseCase) flagManualReview(ctx context.Context, payment entities.Payment) bool {
	if appErr := u.payments.UpdatePaymentField(ctx, payment.ID, portsout.PaymentFieldManualVerification, true); appErr != nil {
		u.logError("manual_review_flag_failed", payment.ID, appErr)
		return false
	}
	logf(u.logger, "manual_review_suggested payment_id=%s crypto_type=%s", payment.ID, payment.CryptoType)
	return true
}

func (u *verifyPaymentUseCase) logError(event, paymentID string, appErr *apperrors.AppError) {
	logf(
		u.logger,
		"%s payment_id=%s code=%s message=%s details=%v",
		event,
		paymentID,
		appErr.Code,
		appErr.Message,
		appErr.Details,
	)
}

func sleepContext(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

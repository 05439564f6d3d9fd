package use_cases

import (
	"context"
	"log"
	"strings"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type adminCompletePaymentUseCase struct {
	payments  portsout.PaymentRepository
	verify    portsin.VerifyPaymentUseCase
	activator portsin.SubscriptionActivator
	logger    *log.Logger
}

func NewAdminCompletePaymentUseCase(
	payments portsout.PaymentRepository,
	verify portsin.VerifyPaymentUseCase,
	activator portsin.SubscriptionActivator,
	logger *log.Logger,
) portsin.AdminCompletePaymentUseCase {
	return &adminCompletePaymentUseCase{
		payments:  payments,
		verify:    verify,
		activator: activator,
		logger:    logger,
	}
}

func (u *adminCompletePaymentUseCase) Execute(ctx context.Context, command dto.AdminCompletePaymentCommand) (dto.AdminCompletePaymentOutput, *apperrors.AppError) {
	if u.payments == nil || u.activator == nil {
		return dto.AdminCompletePaymentOutput{}, apperrors.NewInternal(
			"admin_complete_dependencies_missing",
			"payment repository and subscription activator are required",
			nil,
		)
	}
	adminID := strings.TrimSpace(command.AdminID)
	if adminID == "" {
		return dto.AdminCompletePaymentOutput{}, apperrors.NewValidation(
			"invalid_request",
			"admin_id is required",
			map[string]any{"field": "admin_id"},
		)
	}

	payment, appErr := loadPayment(ctx, u.payments, command.PaymentID)
	if appErr != nil {
		return dto.AdminCompletePaymentOutput{}, appErr
	}

	var txHash *string
	if command.TransactionHash != nil && strings.TrimSpace(*command.TransactionHash) != "" {
		trimmed := strings.TrimSpace(*command.TransactionHash)
		owner, claimed, appErr := u.payments.FindPaymentByTransactionHash(ctx, trimmed)
		if appErr != nil {
			return dto.AdminCompletePaymentOutput{}, appErr
		}
		if claimed && owner.ID != payment.ID {
			return dto.AdminCompletePaymentOutput{}, apperrors.NewConflict(
				"transaction_hash_already_claimed",
				"transaction hash is already recorded on another payment",
				map[string]any{"transaction_hash": trimmed, "claimed_by": owner.ID},
			)
		}
		txHash = &trimmed
	}

	verifiedOnChain := false
	if u.verify != nil {
		verifiedOnChain = u.verify.Execute(ctx, dto.VerifyPaymentCommand{
			PaymentID:   payment.ID,
			Trigger:     dto.VerifyTriggerAdmin,
			MaxAttempts: 1,
		}).Verified
	}
	logf(
		u.logger,
		"admin_complete_requested payment_id=%s admin_id=%s verified_on_chain=%t previous_status=%s",
		payment.ID,
		adminID,
		verifiedOnChain,
		payment.Status,
	)

	if appErr := u.payments.UpdatePaymentField(ctx, payment.ID, portsout.PaymentFieldVerifiedByAdmin, adminID); appErr != nil {
		return dto.AdminCompletePaymentOutput{}, appErr
	}
	if txHash != nil {
		if appErr := u.payments.UpdatePaymentField(ctx, payment.ID, portsout.PaymentFieldTransactionHash, *txHash); appErr != nil {
			return dto.AdminCompletePaymentOutput{}, appErr
		}
	}

	activated := u.activator.Activate(ctx, payment)
	if !activated {
		if appErr := u.payments.UpdatePaymentStatus(ctx, payment.ID, valueobjects.PaymentStatusCompleted); appErr != nil {
			return dto.AdminCompletePaymentOutput{}, appErr
		}
		logf(u.logger, "admin_complete_activation_deferred payment_id=%s admin_id=%s", payment.ID, adminID)
	}

	return dto.AdminCompletePaymentOutput{
		PaymentID:       payment.ID,
		Status:          valueobjects.PaymentStatusCompleted.String(),
		VerifiedOnChain: verifiedOnChain,
		Activated:       activated,
		VerifiedByAdmin: adminID,
		TransactionHash: txHash,
	}, nil
}

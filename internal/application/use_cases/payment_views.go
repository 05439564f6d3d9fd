package use_cases

import (
	"cryptosub/internal/application/dto"
	"cryptosub/internal/domain/entities"
)

func toPaymentStatusView(payment entities.Payment) dto.PaymentStatusView {
	return dto.PaymentStatusView{
		PaymentID:            payment.ID,
		UserID:               payment.UserID,
		Tier:                 payment.Tier.String(),
		CryptoType:           payment.CryptoType.String(),
		AmountUSD:            payment.AmountUSD.StringFixed(2),
		ExpectedAmountCrypto: payment.ExpectedAmountCrypto.String(),
		PayToAddress:         payment.PayToAddress,
		PaymentURL:           payment.PaymentURL,
		AttributionMethod:    payment.AttributionMethod.String(),
		Status:               payment.Status.String(),
		CreatedAt:            payment.CreatedAt,
		ExpiresAt:            payment.ExpiresAt,
		LastChecked:          payment.LastChecked,
		ManualVerification:   payment.ManualVerification,
		VerifiedByAdmin:      payment.VerifiedByAdmin,
		TransactionHash:      payment.TransactionHash,
	}
}

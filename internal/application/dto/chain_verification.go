package dto

import (
	"time"

	"cryptosub/internal/domain/entities"
	"cryptosub/internal/domain/policies"
	valueobjects "cryptosub/internal/domain/value_objects"

	"github.com/shopspring/decimal"
)

type VerifyOnChainInput struct {
	PaymentID             string
	CryptoType            valueobjects.CryptoType
	PayToAddress          string
	ExpectedAmount        decimal.Decimal
	CreatedAt             time.Time
	RequiredConfirmations int
	Strategy              policies.AttributionStrategy
	// ExcludeHashes lists transactions already attributed to other payments.
	ExcludeHashes         []string
}

type VerifyOnChainOutput struct {
	Verified              bool
	Source                string
	Transaction           *entities.ChainTransaction
	AdvisorySources       []string
	ManualReviewSuggested bool
}

func (o VerifyOnChainOutput) TransactionHash() string {
	if o.Transaction == nil {
		return ""
	}
	return o.Transaction.Hash
}

func (i VerifyOnChainInput) Expectation() policies.PaymentExpectation {
	return policies.PaymentExpectation{
		PaymentID:      i.PaymentID,
		ExpectedAmount: i.ExpectedAmount,
		CreatedAt:      i.CreatedAt,
	}
}

func (i VerifyOnChainInput) Excludes(hash string) bool {
	for _, excluded := range i.ExcludeHashes {
		if excluded == hash {
			return true
		}
	}
	return false
}

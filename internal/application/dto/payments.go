package dto

import "time"

type CreatePaymentRequestCommand struct {
	UserID     int64
	Tier       string
	CryptoType string
}

type PaymentRequestResource struct {
	PaymentID            string    `json:"payment_id"`
	UserID               int64     `json:"user_id"`
	Tier                 string    `json:"tier"`
	CryptoType           string    `json:"crypto_type"`
	AmountUSD            string    `json:"amount_usd"`
	ExpectedAmountCrypto string    `json:"expected_amount_crypto"`
	PayToAddress         string    `json:"pay_to_address"`
	PaymentURL           string    `json:"payment_url"`
	AttributionMethod    string    `json:"attribution_method"`
	Status               string    `json:"status"`
	PriceSource          string    `json:"price_source"`
	CreatedAt            time.Time `json:"created_at"`
	ExpiresAt            time.Time `json:"expires_at"`
}

type GetPaymentStatusQuery struct {
	PaymentID string
}

type PaymentStatusView struct {
	PaymentID            string     `json:"payment_id"`
	UserID               int64      `json:"user_id"`
	Tier                 string     `json:"tier"`
	CryptoType           string     `json:"crypto_type"`
	AmountUSD            string     `json:"amount_usd"`
	ExpectedAmountCrypto string     `json:"expected_amount_crypto"`
	PayToAddress         string     `json:"pay_to_address"`
	PaymentURL           string     `json:"payment_url"`
	AttributionMethod    string     `json:"attribution_method"`
	Status               string     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	ExpiresAt            time.Time  `json:"expires_at"`
	LastChecked          *time.Time `json:"last_checked,omitempty"`
	ManualVerification   bool       `json:"manual_verification"`
	VerifiedByAdmin      *string    `json:"verified_by_admin,omitempty"`
	TransactionHash      *string    `json:"transaction_hash,omitempty"`
}

const (
	VerifyTriggerPoller = "poller"
	VerifyTriggerUser   = "user"
	VerifyTriggerAdmin  = "admin"
)

type VerifyPaymentCommand struct {
	PaymentID string
	Trigger   string
	// MaxAttempts caps retries for this call; zero uses the configured value.
	MaxAttempts int
}

type VerifyPaymentOutput struct {
	PaymentID string `json:"payment_id"`
	Verified  bool   `json:"verified"`
	Status    string `json:"status,omitempty"`
}

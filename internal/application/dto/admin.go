package dto

type AdminCompletePaymentCommand struct {
	PaymentID       string
	AdminID         string
	TransactionHash *string
}

type AdminCompletePaymentOutput struct {
	PaymentID       string  `json:"payment_id"`
	Status          string  `json:"status"`
	VerifiedOnChain bool    `json:"verified_on_chain"`
	Activated       bool    `json:"activated"`
	VerifiedByAdmin string  `json:"verified_by_admin"`
	TransactionHash *string `json:"transaction_hash,omitempty"`
}

type AdminCancelPaymentCommand struct {
	PaymentID string
	AdminID   string
}

package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainTransaction is an incoming transfer as reported by one explorer, normalised to whole coins.
type ChainTransaction struct {
	Hash                  string
	Value                 decimal.Decimal
	Timestamp             time.Time
	Confirmations         int64
	ConfirmationsReported bool
	Memo                  string
}

package out

import (
	"context"
	"time"

	valueobjects "cryptosub/internal/domain/value_objects"

	"github.com/shopspring/decimal"
)

type PriceQuote struct {
	PriceUSD  decimal.Decimal
	Source    string
	FetchedAt time.Time
}

// PriceOracle always answers; when every provider fails it falls back to a static table.
type PriceOracle interface {
	GetPrice(ctx context.Context, crypto valueobjects.CryptoType) PriceQuote
}

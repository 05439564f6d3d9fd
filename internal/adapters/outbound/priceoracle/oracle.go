package priceoracle

import (
	"context"
	"log"
	"time"

	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/fallback"
	"cryptosub/internal/infrastructure/metrics"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	SourceStablecoin = "stablecoin"
	SourceCache      = "cache"
	SourceStatic     = "static"
)

// StaticPrices is the last-resort table used when every provider fails.
func StaticPrices() map[valueobjects.CryptoType]decimal.Decimal {
	return map[valueobjects.CryptoType]decimal.Decimal{
		valueobjects.CryptoTON: decimal.RequireFromString("3.35"),
		valueobjects.CryptoBTC: decimal.NewFromInt(65000),
		valueobjects.CryptoETH: decimal.NewFromInt(3500),
		valueobjects.CryptoSOL: decimal.NewFromInt(150),
		valueobjects.CryptoLTC: decimal.NewFromInt(80),
	}
}

type Oracle struct {
	providers []Provider
	cache     Cache
	static    map[valueobjects.CryptoType]decimal.Decimal
	group     singleflight.Group
	now       func() time.Time
	logger    *log.Logger
}

var _ portsout.PriceOracle = (*Oracle)(nil)

func NewOracle(providers []Provider, cache Cache, now func() time.Time, logger *log.Logger) *Oracle {
	if now == nil {
		now = time.Now
	}
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL, now)
	}
	return &Oracle{
		providers: providers,
		cache:     cache,
		static:    StaticPrices(),
		now:       now,
		logger:    logger,
	}
}

func (o *Oracle) GetPrice(ctx context.Context, crypto valueobjects.CryptoType) portsout.PriceQuote {
	if crypto.IsStablecoin() {
		return o.record(crypto, decimal.NewFromInt(1), SourceStablecoin)
	}
	if price, ok := o.cache.Get(ctx, crypto); ok {
		return o.record(crypto, price, SourceCache)
	}

	// Callers share one lookup; a single caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	value, _, _ := o.group.Do(crypto.String(), func() (interface{}, error) {
		return o.lookup(shared, crypto), nil
	})
	return o.record(crypto, value.(priceHit).price, value.(priceHit).source)
}

type priceHit struct {
	price  decimal.Decimal
	source string
}

func (o *Oracle) lookup(ctx context.Context, crypto valueobjects.CryptoType) priceHit {
	steps := make([]fallback.Step[decimal.Decimal], 0, len(o.providers))
	for _, provider := range o.providers {
		provider := provider
		steps = append(steps, fallback.Step[decimal.Decimal]{
			Name: provider.Name(),
			Run: func(ctx context.Context) (decimal.Decimal, error) {
				price, appErr := provider.FetchPrice(ctx, crypto)
				if appErr != nil {
					return decimal.Zero, appErr
				}
				if !price.IsPositive() {
					return decimal.Zero, apperrors.NewProvider(
						"provider_payload_invalid",
						"provider returned a non-positive price",
						map[string]any{"provider": provider.Name(), "price": price.String()},
					)
				}
				return price, nil
			},
		})
	}

	result := fallback.FirstSuccess(ctx, steps)
	if result.Found {
		o.cache.Set(ctx, crypto, result.Value)
		return priceHit{price: result.Value, source: result.Source}
	}

	metrics.PriceFallbackTotal.WithLabelValues(crypto.String()).Inc()
	o.logf("price_fallback_static crypto_type=%s attempts=%s", crypto, result.Summary())
	return priceHit{price: o.static[crypto], source: SourceStatic}
}

func (o *Oracle) record(crypto valueobjects.CryptoType, price decimal.Decimal, source string) portsout.PriceQuote {
	metrics.PriceLookupsTotal.WithLabelValues(crypto.String(), source).Inc()
	return portsout.PriceQuote{PriceUSD: price, Source: source, FetchedAt: o.now().UTC()}
}

func (o *Oracle) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}

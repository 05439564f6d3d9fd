package priceoracle

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptosub/internal/adapters/outbound/httpjson"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

const (
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	DefaultCoinbaseBaseURL  = "https://api.coinbase.com/v2"
	DefaultProviderTimeout  = 5 * time.Second
)

// Provider quotes the USD price of one non-stable asset.
type Provider interface {
	Name() string
	FetchPrice(ctx context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, *apperrors.AppError)
}

var coinGeckoIDs = map[valueobjects.CryptoType]string{
	valueobjects.CryptoTON: "the-open-network",
	valueobjects.CryptoBTC: "bitcoin",
	valueobjects.CryptoETH: "ethereum",
	valueobjects.CryptoSOL: "solana",
	valueobjects.CryptoLTC: "litecoin",
}

type coinGeckoProvider struct {
	baseURL string
	client  *httpjson.Client
}

func NewCoinGeckoProvider(baseURL string, client *httpjson.Client) Provider {
	return &coinGeckoProvider{baseURL: trimBaseURL(baseURL, DefaultCoinGeckoBaseURL), client: client}
}

func (p *coinGeckoProvider) Name() string {
	return "coingecko"
}

func (p *coinGeckoProvider) FetchPrice(ctx context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, *apperrors.AppError) {
	id, ok := coinGeckoIDs[crypto]
	if !ok {
		return decimal.Zero, unsupportedAsset(p.Name(), crypto)
	}

	query := url.Values{}
	query.Set("ids", id)
	query.Set("vs_currencies", "usd")

	payload := map[string]map[string]decimal.Decimal{}
	if appErr := p.client.GetJSON(ctx, p.baseURL+"/simple/price?"+query.Encode(), &payload); appErr != nil {
		return decimal.Zero, appErr
	}
	price, ok := payload[id]["usd"]
	if !ok {
		return decimal.Zero, missingPrice(p.Name(), crypto)
	}
	return price, nil
}

type coinbaseProvider struct {
	baseURL string
	client  *httpjson.Client
}

type coinbaseSpotResponse struct {
	Data struct {
		Amount   decimal.Decimal `json:"amount"`
		Base     string          `json:"base"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

func NewCoinbaseProvider(baseURL string, client *httpjson.Client) Provider {
	return &coinbaseProvider{baseURL: trimBaseURL(baseURL, DefaultCoinbaseBaseURL), client: client}
}

func (p *coinbaseProvider) Name() string {
	return "coinbase"
}

func (p *coinbaseProvider) FetchPrice(ctx context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, *apperrors.AppError) {
	if _, ok := coinGeckoIDs[crypto]; !ok {
		return decimal.Zero, unsupportedAsset(p.Name(), crypto)
	}

	response := coinbaseSpotResponse{}
	endpoint := p.baseURL + "/prices/" + url.PathEscape(crypto.String()+"-USD") + "/spot"
	if appErr := p.client.GetJSON(ctx, endpoint, &response); appErr != nil {
		return decimal.Zero, appErr
	}
	if response.Data.Currency != "" && !strings.EqualFold(response.Data.Currency, "USD") {
		return decimal.Zero, apperrors.NewProvider(
			"provider_payload_invalid",
			"coinbase quote is not denominated in USD",
			map[string]any{"provider": p.Name(), "currency": response.Data.Currency},
		)
	}
	return response.Data.Amount, nil
}

type binanceProvider struct {
	api   *binance.Client
	guard *httpjson.Client
}

// NewBinanceProvider quotes <ASSET>USDT through the public ticker endpoint. USDT is treated as USD.
func NewBinanceProvider(baseURL string, httpClient *http.Client, guard *httpjson.Client) Provider {
	api := binance.NewClient("", "")
	if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
		api.BaseURL = trimmed
	}
	if httpClient != nil {
		api.HTTPClient = httpClient
	}
	return &binanceProvider{api: api, guard: guard}
}

func (p *binanceProvider) Name() string {
	return "binance"
}

func (p *binanceProvider) FetchPrice(ctx context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, *apperrors.AppError) {
	if _, ok := coinGeckoIDs[crypto]; !ok {
		return decimal.Zero, unsupportedAsset(p.Name(), crypto)
	}
	symbol := crypto.String() + "USDT"

	var price decimal.Decimal
	appErr := p.guard.Do(ctx, func(requestCtx context.Context) *apperrors.AppError {
		prices, err := p.api.NewListPricesService().Symbol(symbol).Do(requestCtx)
		if err != nil {
			return apperrors.NewProvider(
				"provider_request_failed",
				"binance ticker request failed",
				map[string]any{"provider": p.Name(), "symbol": symbol, "error": err.Error()},
			)
		}
		for _, item := range prices {
			if item == nil || item.Symbol != symbol {
				continue
			}
			parsed, parseErr := decimal.NewFromString(item.Price)
			if parseErr != nil {
				return apperrors.NewProvider(
					"provider_payload_invalid",
					"binance ticker price is not a decimal",
					map[string]any{"provider": p.Name(), "symbol": symbol, "price": item.Price},
				)
			}
			price = parsed
			return nil
		}
		return missingPrice(p.Name(), crypto)
	})
	if appErr != nil {
		return decimal.Zero, appErr
	}
	return price, nil
}

type ProviderConfig struct {
	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string
	CoinbaseBaseURL  string
	BinanceBaseURL   string
	Timeout          time.Duration
}

// NewDefaultProviders returns CoinGecko, Coinbase and Binance in lookup order.
func NewDefaultProviders(cfg ProviderConfig, options httpjson.Options) []Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	clientFor := func(name string, headers map[string]string) *httpjson.Client {
		opts := options
		opts.Name = "price_" + name
		opts.Timeout = timeout
		opts.Headers = headers
		return httpjson.New(opts)
	}

	return []Provider{
		NewCoinGeckoProvider(cfg.CoinGeckoBaseURL, clientFor("coingecko", map[string]string{
			"x-cg-demo-api-key": cfg.CoinGeckoAPIKey,
		})),
		NewCoinbaseProvider(cfg.CoinbaseBaseURL, clientFor("coinbase", nil)),
		NewBinanceProvider(cfg.BinanceBaseURL, options.HTTPClient, clientFor("binance", nil)),
	}
}

func trimBaseURL(raw string, fallback string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

func unsupportedAsset(provider string, crypto valueobjects.CryptoType) *apperrors.AppError {
	return apperrors.NewProvider(
		"provider_asset_unsupported",
		"provider does not quote this asset",
		map[string]any{"provider": provider, "crypto_type": crypto.String()},
	)
}

func missingPrice(provider string, crypto valueobjects.CryptoType) *apperrors.AppError {
	return apperrors.NewProvider(
		"provider_payload_invalid",
		"provider response does not contain a price",
		map[string]any{"provider": provider, "crypto_type": crypto.String()},
	)
}

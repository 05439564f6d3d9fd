package chainverifier

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"cryptosub/internal/adapters/outbound/httpjson"
	"cryptosub/internal/application/dto"
	portsout "cryptosub/internal/application/ports/out"
	valueobjects "cryptosub/internal/domain/value_objects"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"golang.org/x/time/rate"
)

const (
	defaultExplorerTimeout    = 12 * time.Second
	defaultTONMinInterval     = 3 * time.Second
	defaultChainMinInterval   = 1 * time.Second
	DefaultTonCenterBaseURL   = "https://toncenter.com/api/v2"
	DefaultTonAPIBaseURL      = "https://tonapi.io"
	DefaultBlockchainInfoURL  = "https://blockchain.info"
	DefaultBlockCypherBaseURL = "https://api.blockcypher.com/v1"
	DefaultBTCEsploraBaseURL  = "https://mempool.space/api"
	DefaultLTCEsploraBaseURL  = "https://litecoinspace.org/api"
	DefaultEtherscanBaseURL   = "https://api.etherscan.io/v2/api"
	DefaultEtherscanChainID   = "1"
	DefaultBlockscoutBaseURL  = "https://eth.blockscout.com/api"
	DefaultSolanaRPCURL       = "https://api.mainnet-beta.solana.com"
)

type Config struct {
	Timeout          time.Duration
	TONMinInterval   time.Duration
	ChainMinInterval time.Duration

	TonCenterBaseURL string
	TonCenterAPIKey  string
	TonAPIBaseURL    string
	TonAPIKey        string
	TonMirrorBaseURL string

	BlockchainInfoBaseURL string
	BlockCypherBaseURL    string
	BlockCypherToken      string
	BTCEsploraBaseURL     string
	LTCEsploraBaseURL     string

	EtherscanBaseURL  string
	EtherscanAPIKey   string
	EtherscanChainID  string
	BlockscoutBaseURL string

	SolanaRPCURL       string
	SolanaMirrorRPCURL string

	HTTPClient *http.Client
	Logger     *log.Logger
}

type Gateway struct {
	verifiers map[valueobjects.CryptoType]*Verifier
	logger    *log.Logger
}

var _ portsout.ChainVerifierGateway = (*Gateway)(nil)

func NewGateway(cfg Config) *Gateway {
	builder := newSourceBuilder(cfg)
	logger := cfg.Logger

	verifiers := map[valueobjects.CryptoType]*Verifier{}
	for _, crypto := range valueobjects.SupportedCryptoTypes {
		sources := builder.sourcesFor(crypto)
		if len(sources) == 0 {
			continue
		}
		if crypto.DefaultAttributionMethod() == valueobjects.AttributionMemo {
			verifiers[crypto] = NewMemoVerifier(crypto, sources, logger)
			continue
		}
		verifiers[crypto] = NewAmountTimeWindowVerifier(crypto, sources, logger)
	}
	return NewGatewayWithVerifiers(verifiers, logger)
}

func NewGatewayWithVerifiers(verifiers map[valueobjects.CryptoType]*Verifier, logger *log.Logger) *Gateway {
	return &Gateway{verifiers: verifiers, logger: logger}
}

func (g *Gateway) Verifier(crypto valueobjects.CryptoType) (*Verifier, bool) {
	verifier, ok := g.verifiers[crypto]
	return verifier, ok && verifier != nil
}

func (g *Gateway) VerifyPayment(ctx context.Context, input dto.VerifyOnChainInput) (dto.VerifyOnChainOutput, *apperrors.AppError) {
	if strings.TrimSpace(input.PayToAddress) == "" {
		return dto.VerifyOnChainOutput{}, apperrors.NewValidation(
			"pay_to_address_missing",
			"payment has no destination address",
			map[string]any{"payment_id": input.PaymentID},
		)
	}
	verifier, ok := g.Verifier(input.CryptoType)
	if !ok {
		return dto.VerifyOnChainOutput{}, apperrors.NewConfiguration(
			"chain_verifier_not_configured",
			"no chain verifier is configured for this currency",
			map[string]any{"crypto_type": input.CryptoType.String()},
		)
	}
	return verifier.Verify(ctx, input)
}

type sourceBuilder struct {
	cfg     Config
	timeout time.Duration
}

func newSourceBuilder(cfg Config) sourceBuilder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultExplorerTimeout
	}
	return sourceBuilder{cfg: cfg, timeout: timeout}
}

func (b sourceBuilder) client(crypto valueobjects.CryptoType, source string, limiter *rate.Limiter, headers map[string]string) *httpjson.Client {
	return httpjson.New(httpjson.Options{
		Name:       strings.ToLower(crypto.String()) + "_" + source,
		Timeout:    b.timeout,
		Limiter:    limiter,
		Headers:    headers,
		HTTPClient: b.cfg.HTTPClient,
		Logger:     b.cfg.Logger,
	})
}

func (b sourceBuilder) limiter(crypto valueobjects.CryptoType) *rate.Limiter {
	if crypto == valueobjects.CryptoTON {
		return httpjson.NewMinIntervalLimiter(durationOr(b.cfg.TONMinInterval, defaultTONMinInterval))
	}
	return httpjson.NewMinIntervalLimiter(durationOr(b.cfg.ChainMinInterval, defaultChainMinInterval))
}

func (b sourceBuilder) sourcesFor(crypto valueobjects.CryptoType) []Source {
	cfg := b.cfg
	limiter := b.limiter(crypto)

	switch crypto {
	case valueobjects.CryptoTON:
		sources := []Source{
			NewTonCenterSource("toncenter", stringOr(cfg.TonCenterBaseURL, DefaultTonCenterBaseURL),
				b.client(crypto, "toncenter", limiter, map[string]string{"X-API-Key": cfg.TonCenterAPIKey})),
			NewTonAPISource(stringOr(cfg.TonAPIBaseURL, DefaultTonAPIBaseURL),
				b.client(crypto, "tonapi", limiter, bearer(cfg.TonAPIKey))),
		}
		if mirror := strings.TrimSpace(cfg.TonMirrorBaseURL); mirror != "" {
			sources = append(sources, NewTonCenterSource("ton_mirror", mirror, b.client(crypto, "ton_mirror", limiter, nil)))
		}
		return sources
	case valueobjects.CryptoBTC:
		return []Source{
			NewBlockchainInfoSource(stringOr(cfg.BlockchainInfoBaseURL, DefaultBlockchainInfoURL),
				b.client(crypto, "blockchain_info", limiter, nil)),
			NewBlockCypherSource(stringOr(cfg.BlockCypherBaseURL, DefaultBlockCypherBaseURL), "btc", cfg.BlockCypherToken,
				b.client(crypto, "blockcypher", limiter, nil)),
			NewEsploraSource("esplora", stringOr(cfg.BTCEsploraBaseURL, DefaultBTCEsploraBaseURL),
				b.client(crypto, "esplora", limiter, nil)),
		}
	case valueobjects.CryptoLTC:
		return []Source{
			NewBlockCypherSource(stringOr(cfg.BlockCypherBaseURL, DefaultBlockCypherBaseURL), "ltc", cfg.BlockCypherToken,
				b.client(crypto, "blockcypher", limiter, nil)),
			NewEsploraSource("esplora", stringOr(cfg.LTCEsploraBaseURL, DefaultLTCEsploraBaseURL),
				b.client(crypto, "esplora", limiter, nil)),
		}
	case valueobjects.CryptoETH, valueobjects.CryptoUSDT, valueobjects.CryptoUSDC:
		return []Source{
			NewEtherscanSource(stringOr(cfg.EtherscanBaseURL, DefaultEtherscanBaseURL), cfg.EtherscanAPIKey,
				stringOr(cfg.EtherscanChainID, DefaultEtherscanChainID), b.client(crypto, "etherscan", limiter, nil)),
			NewBlockscoutSource(stringOr(cfg.BlockscoutBaseURL, DefaultBlockscoutBaseURL),
				b.client(crypto, "blockscout", limiter, nil)),
		}
	case valueobjects.CryptoSOL:
		sources := []Source{
			NewSolanaRPCSource("solana_rpc", stringOr(cfg.SolanaRPCURL, DefaultSolanaRPCURL),
				b.client(crypto, "solana_rpc", limiter, nil)),
		}
		if mirror := strings.TrimSpace(cfg.SolanaMirrorRPCURL); mirror != "" {
			sources = append(sources, NewSolanaRPCSource("solana_mirror", mirror, b.client(crypto, "solana_mirror", limiter, nil)))
		}
		return sources
	default:
		return nil
	}
}

func bearer(token string) map[string]string {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + strings.TrimSpace(token)}
}

func stringOr(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func durationOr(value time.Duration, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

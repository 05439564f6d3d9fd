package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	valueobjects "cryptosub/internal/domain/value_objects"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"
	defaultStorageMode              = StorageModePostgres
	defaultPaymentTolerance         = "0.03"
	defaultPaymentTimeWindowMinutes = 60
	defaultPaymentExpiry            = 30 * time.Minute
	defaultRequiredConfirmations    = 1
	defaultVerifyMaxAttempts        = 3
	defaultVerifyBackoffBase        = 30 * time.Second
	defaultVerifyAttemptTimeout     = 60 * time.Second
	defaultPollerInterval           = 5 * time.Minute
	defaultPollerMaxAge             = 24 * time.Hour
	defaultPollerErrorCooldown      = 60 * time.Second
	defaultExplorerTimeout          = 12 * time.Second
	defaultPriceCacheTTL            = 60 * time.Second
)

const (
	StorageModePostgres = "postgres"
	StorageModeMemory   = "memory"
)

// dotEnvPath is loaded before the environment is read. A missing file is not an error.
var dotEnvPath = ".env"

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	StorageMode              string
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string

	WalletAddresses map[valueobjects.CryptoType]string
	TierCatalog     valueobjects.TierCatalog
	TierCatalogPath string

	TonCenterAPIKey  string
	TonAPIKey        string
	TonMirrorBaseURL string
	BlockCypherToken string
	EtherscanAPIKey  string
	SolanaRPCURL     string
	SolanaMirrorURL  string
	CoinGeckoAPIKey  string
	ExplorerTimeout  time.Duration

	PaymentTolerance      decimal.Decimal
	PaymentTimeWindow     time.Duration
	PaymentExpiry         time.Duration
	RequiredConfirmations int

	VerifyMaxAttempts       int
	VerifyBackoffBase       time.Duration
	VerifyAttemptTimeout    time.Duration
	ReviveCancelledPayments bool

	PollerEnabled       bool
	PollerInterval      time.Duration
	PollerMaxAge        time.Duration
	PollerErrorCooldown time.Duration

	RedisURL       string
	PriceCacheTTL  time.Duration
	AdminJWTSecret string
}

var walletAddressEnv = map[valueobjects.CryptoType]string{
	valueobjects.CryptoTON:  "TON_WALLET_ADDRESS",
	valueobjects.CryptoBTC:  "BTC_WALLET_ADDRESS",
	valueobjects.CryptoETH:  "ETH_WALLET_ADDRESS",
	valueobjects.CryptoSOL:  "SOL_WALLET_ADDRESS",
	valueobjects.CryptoLTC:  "LTC_WALLET_ADDRESS",
	valueobjects.CryptoUSDT: "USDT_WALLET_ADDRESS",
	valueobjects.CryptoUSDC: "USDC_WALLET_ADDRESS",
}

func LoadConfig() (Config, *ConfigError) {
	if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, &ConfigError{
			Code:     "CONFIG_DOTENV_INVALID",
			Message:  "failed to load .env file",
			Metadata: map[string]string{"path": dotEnvPath, "error": err.Error()},
		}
	}

	storageMode := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_MODE")))
	if storageMode == "" {
		storageMode = defaultStorageMode
	}
	if storageMode != StorageModePostgres && storageMode != StorageModeMemory {
		return Config{}, &ConfigError{
			Code:     "CONFIG_STORAGE_MODE_INVALID",
			Message:  "STORAGE_MODE must be postgres or memory",
			Metadata: map[string]string{"storage_mode": storageMode},
		}
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	databaseTarget := ""
	if storageMode == StorageModePostgres {
		if databaseURL == "" {
			return Config{}, &ConfigError{
				Code:    "CONFIG_DATABASE_URL_REQUIRED",
				Message: "DATABASE_URL is required",
			}
		}

		parsedTarget, parseErr := parseDatabaseTarget(databaseURL)
		if parseErr != nil {
			return Config{}, parseErr
		}
		databaseTarget = parsedTarget
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	openAPISpecPath := os.Getenv("OPENAPI_SPEC_PATH")
	if openAPISpecPath == "" {
		openAPISpecPath = defaultOpenAPISpec
	}

	tolerance := decimal.RequireFromString(defaultPaymentTolerance)
	if raw := strings.TrimSpace(os.Getenv("PAYMENT_TOLERANCE")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() || parsed.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return Config{}, &ConfigError{
				Code:     "CONFIG_PAYMENT_TOLERANCE_INVALID",
				Message:  "PAYMENT_TOLERANCE must be a decimal in [0, 1)",
				Metadata: map[string]string{"value": raw},
			}
		}
		tolerance = parsed
	}

	windowMinutes, cfgErr := positiveInt("PAYMENT_TIME_WINDOW_MINUTES", defaultPaymentTimeWindowMinutes)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	paymentExpiry, cfgErr := positiveDuration("PAYMENT_EXPIRY", defaultPaymentExpiry)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	requiredConfirmations, cfgErr := positiveInt("REQUIRED_CONFIRMATIONS", defaultRequiredConfirmations)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	verifyMaxAttempts, cfgErr := positiveInt("VERIFY_MAX_ATTEMPTS", defaultVerifyMaxAttempts)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	verifyBackoffBase, cfgErr := positiveDuration("VERIFY_BACKOFF_BASE", defaultVerifyBackoffBase)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	verifyAttemptTimeout, cfgErr := positiveDuration("VERIFY_ATTEMPT_TIMEOUT", defaultVerifyAttemptTimeout)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	reviveCancelled, cfgErr := parseBool("REVIVE_CANCELLED_PAYMENTS", true)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	pollerEnabled, cfgErr := parseBool("POLLER_ENABLED", true)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	pollerInterval, cfgErr := positiveDuration("POLLER_INTERVAL", defaultPollerInterval)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	pollerMaxAge, cfgErr := positiveDuration("POLLER_MAX_AGE", defaultPollerMaxAge)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	pollerErrorCooldown, cfgErr := positiveDuration("POLLER_ERROR_COOLDOWN", defaultPollerErrorCooldown)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	explorerTimeout, cfgErr := positiveDuration("EXPLORER_TIMEOUT", defaultExplorerTimeout)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	priceCacheTTL, cfgErr := positiveDuration("PRICE_CACHE_TTL", defaultPriceCacheTTL)
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if redisURL != "" {
		parsed, err := url.Parse(redisURL)
		if err != nil || (parsed.Scheme != "redis" && parsed.Scheme != "rediss") {
			return Config{}, &ConfigError{
				Code:    "CONFIG_REDIS_URL_INVALID",
				Message: "REDIS_URL must use redis or rediss scheme",
			}
		}
	}

	tierCatalogPath := strings.TrimSpace(os.Getenv("TIER_CATALOG_PATH"))
	tierCatalog := valueobjects.DefaultTierCatalog()
	if tierCatalogPath != "" {
		loaded, loadErr := LoadTierCatalog(tierCatalogPath)
		if loadErr != nil {
			return Config{}, loadErr
		}
		tierCatalog = loaded
	}

	walletAddresses := make(map[valueobjects.CryptoType]string, len(walletAddressEnv))
	for crypto, envName := range walletAddressEnv {
		if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
			walletAddresses[crypto] = value
		}
	}

	return Config{
		Port:                     port,
		OpenAPISpecPath:          openAPISpecPath,
		ShutdownTimeout:          defaultShutdownTimeout,
		StorageMode:              storageMode,
		DatabaseURL:              databaseURL,
		DatabaseTarget:           databaseTarget,
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           defaultMigrationsPath,
		WalletAddresses:          walletAddresses,
		TierCatalog:              tierCatalog,
		TierCatalogPath:          tierCatalogPath,
		TonCenterAPIKey:          strings.TrimSpace(os.Getenv("TONCENTER_API_KEY")),
		TonAPIKey:                strings.TrimSpace(os.Getenv("TONAPI_API_KEY")),
		TonMirrorBaseURL:         strings.TrimSpace(os.Getenv("TON_MIRROR_BASE_URL")),
		BlockCypherToken:         strings.TrimSpace(os.Getenv("BLOCKCYPHER_TOKEN")),
		EtherscanAPIKey:          strings.TrimSpace(os.Getenv("ETHERSCAN_API_KEY")),
		SolanaRPCURL:             strings.TrimSpace(os.Getenv("SOLANA_RPC_URL")),
		SolanaMirrorURL:          strings.TrimSpace(os.Getenv("SOLANA_MIRROR_RPC_URL")),
		CoinGeckoAPIKey:          strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),
		ExplorerTimeout:          explorerTimeout,
		PaymentTolerance:         tolerance,
		PaymentTimeWindow:        time.Duration(windowMinutes) * time.Minute,
		PaymentExpiry:            paymentExpiry,
		RequiredConfirmations:    requiredConfirmations,
		VerifyMaxAttempts:        verifyMaxAttempts,
		VerifyBackoffBase:        verifyBackoffBase,
		VerifyAttemptTimeout:     verifyAttemptTimeout,
		ReviveCancelledPayments:  reviveCancelled,
		PollerEnabled:            pollerEnabled,
		PollerInterval:           pollerInterval,
		PollerMaxAge:             pollerMaxAge,
		PollerErrorCooldown:      pollerErrorCooldown,
		RedisURL:                 redisURL,
		PriceCacheTTL:            priceCacheTTL,
		AdminJWTSecret:           strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET")),
	}, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}

func positiveInt(name string, fallback int) (int, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + name + "_INVALID",
			Message:  name + " must be a positive integer",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

// positiveDuration accepts Go duration strings ("90s", "5m") or bare seconds.
func positiveDuration(name string, fallback time.Duration) (time.Duration, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		seconds, atoiErr := strconv.Atoi(raw)
		if atoiErr != nil {
			parsed = 0
		} else {
			parsed = time.Duration(seconds) * time.Second
		}
	}
	if parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + name + "_INVALID",
			Message:  name + " must be a positive duration",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

func parseBool(name string, fallback bool) (bool, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{
			Code:     "CONFIG_" + name + "_INVALID",
			Message:  name + " must be a boolean",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

type tierCatalogFile struct {
	Tiers []struct {
		Tier         string `yaml:"tier"`
		PriceUSD     string `yaml:"price_usd"`
		DurationDays int    `yaml:"duration_days"`
		AdSlots      int    `yaml:"ad_slots"`
	} `yaml:"tiers"`
}

// LoadTierCatalog reads a YAML tier catalog:
//
//	tiers:
//	  - tier: basic
//	    price_usd: "15"
//	    duration_days: 30
//	    ad_slots: 1
func LoadTierCatalog(path string) (valueobjects.TierCatalog, *ConfigError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return valueobjects.TierCatalog{}, &ConfigError{
			Code:     "CONFIG_TIER_CATALOG_UNREADABLE",
			Message:  "TIER_CATALOG_PATH could not be read",
			Metadata: map[string]string{"path": path, "error": err.Error()},
		}
	}

	var file tierCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return valueobjects.TierCatalog{}, &ConfigError{
			Code:     "CONFIG_TIER_CATALOG_INVALID",
			Message:  "tier catalog must be valid YAML",
			Metadata: map[string]string{"path": path, "error": err.Error()},
		}
	}

	plans := make([]valueobjects.TierPlan, 0, len(file.Tiers))
	for _, entry := range file.Tiers {
		price, err := decimal.NewFromString(strings.TrimSpace(entry.PriceUSD))
		if err != nil {
			return valueobjects.TierCatalog{}, &ConfigError{
				Code:     "CONFIG_TIER_CATALOG_INVALID",
				Message:  "tier price_usd must be a decimal",
				Metadata: map[string]string{"path": path, "tier": entry.Tier},
			}
		}
		plans = append(plans, valueobjects.TierPlan{
			Tier:         valueobjects.Tier(strings.ToLower(strings.TrimSpace(entry.Tier))),
			PriceUSD:     price,
			DurationDays: entry.DurationDays,
			AdSlots:      entry.AdSlots,
		})
	}

	catalog, appErr := valueobjects.NewTierCatalog(plans)
	if appErr != nil {
		return valueobjects.TierCatalog{}, &ConfigError{
			Code:     "CONFIG_TIER_CATALOG_INVALID",
			Message:  appErr.Message,
			Metadata: map[string]string{"path": path, "code": appErr.Code},
		}
	}
	return catalog, nil
}

package di

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"cryptosub/internal/adapters/inbound/http/controllers"
	httpRouter "cryptosub/internal/adapters/inbound/http/router"
	"cryptosub/internal/adapters/outbound/chainverifier"
	"cryptosub/internal/adapters/outbound/docs"
	"cryptosub/internal/adapters/outbound/httpjson"
	"cryptosub/internal/adapters/outbound/persistence/memory"
	"cryptosub/internal/adapters/outbound/persistence/postgresql"
	postgresqlpayment "cryptosub/internal/adapters/outbound/persistence/postgresql/payment"
	postgresqlshared "cryptosub/internal/adapters/outbound/persistence/postgresql/shared"
	postgresqlsubscription "cryptosub/internal/adapters/outbound/persistence/postgresql/subscription"
	"cryptosub/internal/adapters/outbound/priceoracle"
	"cryptosub/internal/adapters/outbound/wallet/static"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	"cryptosub/internal/application/use_cases"
	"cryptosub/internal/domain/policies"
	"cryptosub/internal/infrastructure/config"
	"cryptosub/internal/infrastructure/httpserver"
	"cryptosub/internal/infrastructure/keyedmutex"
	"cryptosub/internal/infrastructure/metrics"
	"cryptosub/internal/infrastructure/poller"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Database is nil when payments live in memory.
	Database                     *sqlx.DB
	Redis                        *redis.Client
	Server                       *httpserver.Server
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	PollerWorker                 *poller.Worker
}

// Storage bundles the repositories for one STORAGE_MODE.
type Storage struct {
	Database      *sqlx.DB
	Payments      portsout.PaymentRepository
	Subscriptions portsout.SubscriptionRepository
	Bootstrap     portsout.PersistenceBootstrapGateway
}

type StorageBuilder func(cfg config.Config, logger *log.Logger) (Storage, error)

var storageBuilders = map[string]StorageBuilder{
	config.StorageModePostgres: func(cfg config.Config, logger *log.Logger) (Storage, error) {
		databasePool := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, logger)
		return Storage{
			Database:      databasePool,
			Payments:      postgresqlpayment.NewRepository(databasePool, time.Now, logger),
			Subscriptions: postgresqlsubscription.NewRepository(databasePool, time.Now, logger),
			Bootstrap: postgresql.NewPersistenceBootstrapGateway(
				cfg.DatabaseURL,
				cfg.DatabaseTarget,
				cfg.MigrationsPath,
				logger,
			),
		}, nil
	},
	config.StorageModeMemory: func(_ config.Config, logger *log.Logger) (Storage, error) {
		store := memory.NewStore(time.Now)
		if logger != nil {
			logger.Printf("storage_mode_memory payments and subscriptions are not persisted across restarts")
		}
		return Storage{
			Payments:      store,
			Subscriptions: store,
			Bootstrap:     store,
		}, nil
	},
}

var storageBuildersMu sync.RWMutex

func RegisterStorageBuilder(mode string, builder StorageBuilder) {
	normalizedMode := strings.ToLower(strings.TrimSpace(mode))
	if normalizedMode == "" || builder == nil {
		return
	}

	storageBuildersMu.Lock()
	defer storageBuildersMu.Unlock()
	storageBuilders[normalizedMode] = builder
}

func Build(cfg config.Config, logger *log.Logger) (Container, error) {
	metrics.InitMetrics()

	storage, buildErr := buildStorage(cfg, logger)
	if buildErr != nil {
		return Container{}, buildErr
	}

	redisClient, cache, buildErr := buildPriceCache(cfg, logger)
	if buildErr != nil {
		return Container{}, buildErr
	}

	clock := use_cases.NewSystemClock()
	catalog := cfg.TierCatalog
	addressBook := static.NewAddressBook(cfg.WalletAddresses, logger)
	logger.Printf("wallet addresses configured crypto_types=%v", addressBook.ConfiguredCryptoTypes())

	priceOracle := priceoracle.NewOracle(
		priceoracle.NewDefaultProviders(
			priceoracle.ProviderConfig{CoinGeckoAPIKey: cfg.CoinGeckoAPIKey},
			httpjson.Options{Logger: logger},
		),
		cache,
		time.Now,
		logger,
	)
	chainGateway := chainverifier.NewGateway(chainverifier.Config{
		Timeout:            cfg.ExplorerTimeout,
		TonCenterAPIKey:    cfg.TonCenterAPIKey,
		TonAPIKey:          cfg.TonAPIKey,
		TonMirrorBaseURL:   cfg.TonMirrorBaseURL,
		BlockCypherToken:   cfg.BlockCypherToken,
		EtherscanAPIKey:    cfg.EtherscanAPIKey,
		SolanaRPCURL:       cfg.SolanaRPCURL,
		SolanaMirrorRPCURL: cfg.SolanaMirrorURL,
		Logger:             logger,
	})

	verificationLocks := keyedmutex.New()
	activationLocks := keyedmutex.New()

	activator := use_cases.NewSubscriptionActivator(
		storage.Payments,
		storage.Subscriptions,
		priceOracle,
		activationLocks,
		catalog,
		clock,
		logger,
	)
	verifyPaymentUseCase := metrics.InstrumentVerifyPayment(use_cases.NewVerifyPaymentUseCase(
		storage.Payments,
		chainGateway,
		verificationLocks,
		activator,
		use_cases.VerificationSettings{
			MaxAttempts:     cfg.VerifyMaxAttempts,
			BackoffBase:     cfg.VerifyBackoffBase,
			AttemptTimeout:  cfg.VerifyAttemptTimeout,
			ReviveCancelled: cfg.ReviveCancelledPayments,
			Attribution: policies.AttributionSettings{
				Tolerance:       cfg.PaymentTolerance,
				TimeWindowWidth: cfg.PaymentTimeWindow,
				MemoWindow:      policies.DefaultMemoWindow,
			},
		},
		clock,
		logger,
	))
	createPaymentRequestUseCase := use_cases.NewCreatePaymentRequestUseCase(
		storage.Payments,
		priceOracle,
		addressBook,
		catalog,
		use_cases.PaymentRequestSettings{
			Expiry:                cfg.PaymentExpiry,
			RequiredConfirmations: cfg.RequiredConfirmations,
		},
		clock,
	)
	getPaymentStatusUseCase := use_cases.NewGetPaymentStatusUseCase(storage.Payments, activator, clock)
	adminCompleteUseCase := use_cases.NewAdminCompletePaymentUseCase(storage.Payments, verifyPaymentUseCase, activator, logger)
	adminCancelUseCase := use_cases.NewAdminCancelPaymentUseCase(storage.Payments, verificationLocks, logger)
	sweepUseCase := use_cases.NewSweepPendingPaymentsUseCase(storage.Payments, verifyPaymentUseCase, clock, logger)
	listCurrenciesUseCase := use_cases.NewListCurrenciesUseCase(addressBook, catalog)
	getUserSubscriptionUseCase := use_cases.NewGetUserSubscriptionUseCase(storage.Subscriptions, catalog, clock)

	pollerWorker := poller.NewWorker(
		cfg.PollerEnabled,
		cfg.PollerInterval,
		cfg.PollerMaxAge,
		cfg.PollerErrorCooldown,
		sweepUseCase,
		logger,
	)

	healthUseCase := use_cases.NewGetHealthUseCase()
	openAPIReadModel := docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath)
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(openAPIReadModel)

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:  controllers.NewHealthController(healthUseCase, logger),
		SwaggerController: controllers.NewSwaggerController(openAPIUseCase, logger),
		CatalogController: controllers.NewCatalogController(listCurrenciesUseCase, getUserSubscriptionUseCase, logger),
		PaymentsController: controllers.NewPaymentsController(
			createPaymentRequestUseCase,
			getPaymentStatusUseCase,
			verifyPaymentUseCase,
			logger,
		),
		AdminController: controllers.NewAdminController(adminCompleteUseCase, adminCancelUseCase, logger),
		AdminJWTSecret:  cfg.AdminJWTSecret,
		Logger:          logger,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Printf("admin_auth_disabled reason=ADMIN_JWT_SECRET is empty")
	}

	server := httpserver.New(cfg.Address(), router, logger)

	return Container{
		Database:                     storage.Database,
		Redis:                        redisClient,
		Server:                       server,
		InitializePersistenceUseCase: use_cases.NewInitializePersistenceUseCase(storage.Bootstrap, logger),
		PollerWorker:                 pollerWorker,
	}, nil
}

func buildStorage(cfg config.Config, logger *log.Logger) (Storage, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.StorageMode))

	storageBuildersMu.RLock()
	builder, exists := storageBuilders[mode]
	storageBuildersMu.RUnlock()
	if !exists {
		return Storage{}, fmt.Errorf("unsupported storage mode: %s", cfg.StorageMode)
	}

	return builder(cfg, logger)
}

func buildPriceCache(cfg config.Config, logger *log.Logger) (*redis.Client, priceoracle.Cache, error) {
	if cfg.RedisURL == "" {
		return nil, priceoracle.NewMemoryCache(cfg.PriceCacheTTL, time.Now), nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	logger.Printf("price cache backend=redis addr=%s ttl=%s", options.Addr, cfg.PriceCacheTTL)
	return client, priceoracle.NewRedisCache(client, cfg.PriceCacheTTL, logger), nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cryptosub/internal/application/dto"
	"cryptosub/internal/infrastructure/config"
	"cryptosub/internal/infrastructure/di"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		logger.Printf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}
	if !cfg.PollerEnabled {
		logger.Printf("poller config error code=CONFIG_POLLER_DISABLED message=POLLER_ENABLED must be true for poller runtime")
		os.Exit(1)
	}
	if cfg.StorageMode == config.StorageModeMemory {
		logger.Printf("poller config warning storage_mode=memory payments created by other processes are invisible to this poller")
	}

	container, buildErr := di.Build(cfg, logger)
	if buildErr != nil {
		logger.Printf("dependency wiring error: %v", buildErr)
		os.Exit(1)
	}
	defer func() {
		if container.Redis != nil {
			if err := container.Redis.Close(); err != nil {
				logger.Printf("redis close warning error=%v", err)
			}
		}
		if container.Database != nil {
			if err := container.Database.Close(); err != nil {
				logger.Printf("database close warning error=%v", err)
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("poller persistence initialization starting database_target=%s", cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"poller persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Printf("poller persistence initialization completed database_target=%s", cfg.DatabaseTarget)

	if container.PollerWorker == nil || !container.PollerWorker.Enabled() {
		logger.Printf("poller startup failed code=POLLER_WORKER_NOT_ENABLED message=poller worker is not enabled")
		os.Exit(1)
	}

	container.PollerWorker.Start(ctx)
	logger.Printf("poller stopped")
}

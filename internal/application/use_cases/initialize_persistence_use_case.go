package use_cases

import (
	"context"
	"log"
	"time"

	"cryptosub/internal/application/dto"
	portsin "cryptosub/internal/application/ports/in"
	portsout "cryptosub/internal/application/ports/out"
	apperrors "cryptosub/internal/shared_kernel/errors"
)

type initializePersistenceUseCase struct {
	gateway portsout.PersistenceBootstrapGateway
	logger  *log.Logger
	sleep   func(ctx context.Context, delay time.Duration) bool
}

func NewInitializePersistenceUseCase(gateway portsout.PersistenceBootstrapGateway, logger *log.Logger) portsin.InitializePersistenceUseCase {
	return &initializePersistenceUseCase{
		gateway: gateway,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Execute waits for storage to answer, then applies the schema. Payments and subscriptions
// are never served from a store that has not been migrated.
func (u *initializePersistenceUseCase) Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	if u.gateway == nil {
		return apperrors.NewInternal("persistence_gateway_missing", "persistence gateway is required", nil)
	}
	if command.ReadinessTimeout <= 0 || command.ReadinessRetryInterval <= 0 {
		return apperrors.NewValidation(
			"readiness_settings_invalid",
			"readiness timeout and retry interval must be greater than zero",
			map[string]any{
				"timeout":        command.ReadinessTimeout.String(),
				"retry_interval": command.ReadinessRetryInterval.String(),
			},
		)
	}

	if appErr := u.awaitReadiness(ctx, command); appErr != nil {
		return appErr
	}
	if appErr := u.gateway.RunMigrations(ctx); appErr != nil {
		logf(u.logger, "persistence_migrations_failed code=%s message=%s", appErr.Code, appErr.Message)
		return appErr
	}
	logf(u.logger, "persistence_ready")
	return nil
}

func (u *initializePersistenceUseCase) awaitReadiness(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	readinessCtx, cancel := context.WithTimeout(ctx, command.ReadinessTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		appErr := u.gateway.CheckReadiness(readinessCtx)
		if appErr == nil {
			return nil
		}
		logf(u.logger, "persistence_not_ready attempt=%d code=%s", attempt, appErr.Code)

		if readinessCtx.Err() != nil || !u.sleep(readinessCtx, command.ReadinessRetryInterval) {
			return apperrors.NewInternal(
				"db_readiness_timeout",
				"storage did not become ready in time",
				map[string]any{
					"attempts":  attempt,
					"timeout":   command.ReadinessTimeout.String(),
					"last_code": appErr.Code,
				},
			)
		}
	}
}

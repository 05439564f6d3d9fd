//go:build !integration

package di

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cryptosub/internal/application/dto"
	valueobjects "cryptosub/internal/domain/value_objects"
	"cryptosub/internal/infrastructure/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		Port:            "0",
		OpenAPISpecPath: "api/openapi.yaml",
		StorageMode:     config.StorageModeMemory,
		WalletAddresses: map[valueobjects.CryptoType]string{
			valueobjects.CryptoBTC: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		},
		TierCatalog:          valueobjects.DefaultTierCatalog(),
		PaymentTolerance:     decimal.RequireFromString("0.03"),
		PaymentTimeWindow:    time.Hour,
		PaymentExpiry:        time.Hour,
		VerifyMaxAttempts:    1,
		VerifyAttemptTimeout: time.Second,
		PollerEnabled:        true,
		PollerInterval:       time.Minute,
		PollerMaxAge:         time.Hour,
		PollerErrorCooldown:  time.Minute,
		ExplorerTimeout:      time.Second,
		PriceCacheTTL:        time.Minute,
	}
}

func TestBuildMemoryContainer(t *testing.T) {
	container, err := Build(memoryConfig(), log.New(io.Discard, "", 0))
	require.NoError(t, err)

	assert.Nil(t, container.Database)
	assert.Nil(t, container.Redis)
	require.NotNil(t, container.Server)
	require.NotNil(t, container.PollerWorker)
	assert.True(t, container.PollerWorker.Enabled())

	appErr := container.InitializePersistenceUseCase.Execute(context.Background(), dto.InitializePersistenceCommand{
		ReadinessTimeout:       time.Second,
		ReadinessRetryInterval: 10 * time.Millisecond,
	})
	assert.Nil(t, appErr)

	req := httptest.NewRequest(http.MethodGet, "/v1/currencies", nil)
	rec := httptest.NewRecorder()
	container.Server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"crypto_type":"BTC"`), rec.Body.String())
}

func TestBuildWithRedisCache(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisURL = "redis://127.0.0.1:6399/2"

	container, err := Build(cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	require.NotNil(t, container.Redis)
	assert.Equal(t, "127.0.0.1:6399", container.Redis.Options().Addr)
	assert.Equal(t, 2, container.Redis.Options().DB)
	require.NoError(t, container.Redis.Close())
}

func TestBuildRejectsUnknownStorageMode(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageMode = "cassandra"

	_, err := Build(cfg, log.New(io.Discard, "", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage mode")
}

func TestRegisterStorageBuilderOverridesMode(t *testing.T) {
	called := false
	RegisterStorageBuilder("Custom-Mode", func(cfg config.Config, logger *log.Logger) (Storage, error) {
		called = true
		return storageBuilders[config.StorageModeMemory](cfg, logger)
	})
	t.Cleanup(func() {
		storageBuildersMu.Lock()
		delete(storageBuilders, "custom-mode")
		storageBuildersMu.Unlock()
	})

	cfg := memoryConfig()
	cfg.StorageMode = "custom-mode"
	_, err := Build(cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	assert.True(t, called)
}

package priceoracle

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	valueobjects "cryptosub/internal/domain/value_objects"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const DefaultCacheTTL = 60 * time.Second

type Cache interface {
	Get(ctx context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, bool)
	Set(ctx context.Context, crypto valueobjects.CryptoType, price decimal.Decimal)
}

type memoryEntry struct {
	price     decimal.Decimal
	expiresAt time.Time
}

type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[valueobjects.CryptoType]memoryEntry
}

func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: map[valueobjects.CryptoType]memoryEntry{},
	}
}

func (c *MemoryCache) Get(_ context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[crypto]
	if !ok {
		return decimal.Zero, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, crypto)
		return decimal.Zero, false
	}
	return entry.price, true
}

func (c *MemoryCache) Set(_ context.Context, crypto valueobjects.CryptoType, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[crypto] = memoryEntry{price: price, expiresAt: c.now().Add(c.ttl)}
}

// RedisCache shares quotes across replicas under price:<CRYPTO> keys with a server-side TTL.
// Redis failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func redisKey(crypto valueobjects.CryptoType) string {
	return "price:" + crypto.String()
}

func (c *RedisCache) Get(ctx context.Context, crypto valueobjects.CryptoType) (decimal.Decimal, bool) {
	raw, err := c.client.Get(ctx, redisKey(crypto)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false
	}
	if err != nil {
		c.logf("price_cache_read_failed crypto_type=%s error=%q", crypto, err.Error())
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}

func (c *RedisCache) Set(ctx context.Context, crypto valueobjects.CryptoType, price decimal.Decimal) {
	if err := c.client.Set(ctx, redisKey(crypto), price.String(), c.ttl).Err(); err != nil {
		c.logf("price_cache_write_failed crypto_type=%s error=%q", crypto, err.Error())
	}
}

func (c *RedisCache) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

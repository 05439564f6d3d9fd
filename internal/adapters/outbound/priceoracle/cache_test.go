//go:build !integration

package priceoracle

import (
	"context"
	"testing"
	"time"

	valueobjects "cryptosub/internal/domain/value_objects"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRedisCacheDegradesToMissWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewRedisCache(client, time.Minute, nil)
	cache.Set(context.Background(), valueobjects.CryptoBTC, decimal.NewFromInt(65000))

	_, ok := cache.Get(context.Background(), valueobjects.CryptoBTC)
	assert.False(t, ok)
	assert.Equal(t, "price:BTC", redisKey(valueobjects.CryptoBTC))
}

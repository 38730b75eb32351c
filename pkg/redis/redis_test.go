package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_booking/config"
)

func TestFromCentralConfig_FillsDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", ReadTimeoutSeconds: 7})

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 7*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
}

func TestNewRedisFromCentral(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisFromCentral(config.RedisConfig{Addr: mr.Addr(), DB: 0})
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = NewRedis(Config{})
	assert.Error(t, err)

	_, err = NewRedisFromCentral(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeoutSeconds: 1})
	assert.Error(t, err)
}

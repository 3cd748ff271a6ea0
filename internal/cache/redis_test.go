package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisConfigOptions(t *testing.T) {
	opts := RedisConfig{
		Address:  " localhost:6379 ",
		Username: "app",
		Password: "secret",
		DB:       2,
		TLS:      true,
	}.Options()

	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, "app", opts.Username)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, defaultRedisTimeout, opts.DialTimeout)
	require.NotNil(t, opts.TLSConfig)

	opts = RedisConfig{Address: "redis:6379", Timeout: time.Second}.Options()
	require.Equal(t, time.Second, opts.ReadTimeout)
	require.Nil(t, opts.TLSConfig)
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{})
	require.Error(t, err)
}

func TestRedisStoreCloseNil(t *testing.T) {
	var store *RedisStore
	require.NoError(t, store.Close())
}

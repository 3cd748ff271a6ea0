package app

import (
	"crypto/tls"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/charlesng35/roadboard/internal/cache"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// AsynqRedisOpt points the job queue at the same Redis instance as the cache.
func (c CacheConfig) AsynqRedisOpt() asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{
		Addr:         strings.TrimSpace(c.Redis.Address),
		Username:     strings.TrimSpace(c.Redis.Username),
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		DialTimeout:  c.Redis.Timeout,
		ReadTimeout:  c.Redis.Timeout,
		WriteTimeout: c.Redis.Timeout,
	}
	if c.Redis.TLS {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opt
}

package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is the connection shared by the session rate limiter and the
// product read cache.
type RedisConfig struct {
	Disabled bool          // REDIS_DISABLED
	Addr     string        // REDIS_ADDR, host:port
	Password string        // REDIS_PASSWORD
	DB       int           // REDIS_DB
	TLS      bool          // REDIS_TLS
	Timeout  time.Duration // REDIS_PING_TIMEOUT, startup ping only
}

func LoadRedisConfig() RedisConfig {
	cfg := RedisConfig{
		Disabled: envBool("REDIS_DISABLED", false),
		Addr:     envStr("REDIS_ADDR", "localhost:6379"),
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
		Timeout:  envDur("REDIS_PING_TIMEOUT", 2*time.Second),
	}
	if cfg.DB < 0 {
		cfg.DB = 0
	}
	return cfg
}

func (c RedisConfig) options() *redis.Options {
	opts := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient connects with LoadRedisConfig.  It returns nil when Redis
// is disabled or does not answer a ping; the rate limiter then falls back
// to its in-process store and the product cache stays off.
func NewRedisClient() *redis.Client {
	cfg := LoadRedisConfig()
	if cfg.Disabled {
		return nil
	}
	client := redis.NewClient(cfg.options())
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tradein-service/internal/config"
)

// Redis wraps the go-redis client together with the trade-in cache settings
// that share its keyspace.
type Redis struct {
	Client    *redis.Client
	KeyPrefix string
	CacheTTL  time.Duration
}

// NewRedis connects to Redis using the provided configuration. An unreachable
// server is logged and the cache degrades to misses.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{
		Client:    client,
		KeyPrefix: keyPrefix(cfg.KeyPrefix),
		CacheTTL:  cfg.CacheTTL(),
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis, trade-in cache will miss", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis",
			zap.String("addr", cfg.Addr),
			zap.String("key_prefix", r.KeyPrefix),
			zap.Duration("cache_ttl", r.CacheTTL))
	}
	return r
}

func keyPrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "tradein:"
	}
	if !strings.HasSuffix(p, ":") {
		p += ":"
	}
	return p
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

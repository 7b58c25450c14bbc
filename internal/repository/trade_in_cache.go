package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tradein-service/internal/domain"
)

// DefaultCacheKeyPrefix namespaces cache keys when none is configured.
const DefaultCacheKeyPrefix = "tradein:"

// TradeInCache stores detail snapshots. Implementations never fail the caller:
// a miss and a backend error look the same to Get.
type TradeInCache interface {
	Get(ctx context.Context, id string) (*domain.TradeInRequest, bool)
	// Set stores req unless an invalidation already raised the floor above
	// req.Version.
	Set(ctx context.Context, req *domain.TradeInRequest)
	// Invalidate drops the snapshot and refuses later snapshots older than
	// version.
	Invalidate(ctx context.Context, id string, version int64)
}

// setIfCurrent writes the snapshot only when its version is not below the
// floor left by the last invalidation.
var setIfCurrent = redis.NewScript(`
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) < floor then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// dropAndRaiseFloor deletes the snapshot and keeps the highest floor seen.
var dropAndRaiseFloor = redis.NewScript(`
redis.call('DEL', KEYS[1])
local floor = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) > floor then
  redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
end
return 1
`)

// RedisTradeInCache is a TradeInCache on go-redis. A nil client or a zero TTL
// turns every call into a no-op.
type RedisTradeInCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTradeInCache builds the cache. An empty prefix selects
// DefaultCacheKeyPrefix.
func NewRedisTradeInCache(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisTradeInCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = DefaultCacheKeyPrefix
	} else if !strings.HasSuffix(keyPrefix, ":") {
		keyPrefix += ":"
	}
	return &RedisTradeInCache{client: client, prefix: keyPrefix, ttl: ttl, logger: logger}
}

func (c *RedisTradeInCache) keys(id string) []string {
	return []string{c.prefix + id, c.prefix + id + ":floor"}
}

func (c *RedisTradeInCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached snapshot if present.
func (c *RedisTradeInCache) Get(ctx context.Context, id string) (*domain.TradeInRequest, bool) {
	if !c.enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.keys(id)[0]).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("trade-in cache read failed", zap.String("request_id", id), zap.Error(err))
		}
		return nil, false
	}
	var req domain.TradeInRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("request_id", id), zap.Error(err))
		if err := c.client.Del(ctx, c.keys(id)[0]).Err(); err != nil {
			c.logger.Warn("trade-in cache delete failed", zap.String("request_id", id), zap.Error(err))
		}
		return nil, false
	}
	return &req, true
}

// Set stores a snapshot under the configured TTL.
func (c *RedisTradeInCache) Set(ctx context.Context, req *domain.TradeInRequest) {
	if !c.enabled() || req == nil {
		return
	}
	raw, err := json.Marshal(req)
	if err != nil {
		c.logger.Warn("trade-in cache encode failed", zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	stored, err := setIfCurrent.Run(ctx, c.client, c.keys(req.ID), raw, req.Version, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("trade-in cache write failed", zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("skipped stale cache write",
			zap.String("request_id", req.ID), zap.Int64("version", req.Version))
	}
}

// Invalidate removes the snapshot for id. The floor outlives the snapshot by
// one TTL so a reader that loaded before the write cannot re-cache it.
func (c *RedisTradeInCache) Invalidate(ctx context.Context, id string, version int64) {
	if !c.enabled() {
		return
	}
	if err := dropAndRaiseFloor.Run(ctx, c.client, c.keys(id), version, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Warn("trade-in cache invalidation failed", zap.String("request_id", id), zap.Error(err))
	}
}

// NoopCache disables caching.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.TradeInRequest, bool) { return nil, false }
func (NoopCache) Set(context.Context, *domain.TradeInRequest) {}
func (NoopCache) Invalidate(context.Context, string, int64) {}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tradein-service/internal/config"
)

func TestNewRedis_CacheSettings(t *testing.T) {
	srv := miniredis.RunT(t)

	r := NewRedis(config.RedisConfig{Addr: srv.Addr(), KeyPrefix: "shop", CacheTTLSeconds: 90}, zap.NewNop())
	defer r.Close()

	require.Equal(t, "shop:", r.KeyPrefix)
	require.Equal(t, 90*time.Second, r.CacheTTL)
	require.NoError(t, r.Ping(context.Background()))
}

func TestNewRedis_Defaults(t *testing.T) {
	srv := miniredis.RunT(t)

	r := NewRedis(config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	defer r.Close()

	require.Equal(t, "tradein:", r.KeyPrefix)
	require.Zero(t, r.CacheTTL)
}

func TestRedis_PingUnconfigured(t *testing.T) {
	var r *Redis
	require.Error(t, r.Ping(context.Background()))
	require.NotPanics(t, r.Close)
}

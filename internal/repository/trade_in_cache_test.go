package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, prefix string) (*RedisTradeInCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTradeInCache(client, prefix, time.Minute, nil), srv
}

func TestRedisTradeInCache_KeyPrefix(t *testing.T) {
	require.Equal(t, []string{"tradein:abc", "tradein:abc:floor"}, NewRedisTradeInCache(nil, "", time.Minute, nil).keys("abc"))
	require.Equal(t, "svc:abc", NewRedisTradeInCache(nil, "svc", time.Minute, nil).keys("abc")[0])
}

func TestRedisTradeInCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "")
	req := sampleRequest()
	req.Version = 1

	c.Set(ctx, req)
	require.True(t, srv.Exists("tradein:"+req.ID))
	require.Equal(t, time.Minute, srv.TTL("tradein:"+req.ID))

	got, ok := c.Get(ctx, req.ID)
	require.True(t, ok)
	require.Equal(t, req.ID, got.ID)
	require.Equal(t, "256GB", got.Specifications.Storage)

	c.Invalidate(ctx, req.ID, 2)
	_, ok = c.Get(ctx, req.ID)
	require.False(t, ok)
}

func TestRedisTradeInCache_InvalidateBlocksStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "")
	stale := sampleRequest()
	stale.Version = 1

	c.Invalidate(ctx, stale.ID, 2)
	c.Set(ctx, stale)
	require.False(t, srv.Exists("tradein:"+stale.ID))

	fresh := sampleRequest()
	fresh.Version = 2
	c.Set(ctx, fresh)
	got, ok := c.Get(ctx, fresh.ID)
	require.True(t, ok)
	require.Equal(t, int64(2), got.Version)

	c.Invalidate(ctx, stale.ID, 1)
	floor, err := srv.Get("tradein:" + stale.ID + ":floor")
	require.NoError(t, err)
	require.Equal(t, "2", floor)
}

func TestRedisTradeInCache_DropsUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "")
	require.NoError(t, srv.Set("tradein:bad", "{not json"))

	_, ok := c.Get(ctx, "bad")
	require.False(t, ok)
	require.False(t, srv.Exists("tradein:bad"))
}

func TestRedisTradeInCache_BackendDownIsMiss(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestCache(t, "")
	srv.Close()

	require.NotPanics(t, func() {
		c.Set(ctx, sampleRequest())
		c.Invalidate(ctx, "x", 1)
	})
	_, ok := c.Get(ctx, "x")
	require.False(t, ok)
}

func TestRedisTradeInCache_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*RedisTradeInCache{
		nil,
		NewRedisTradeInCache(nil, "", time.Minute, nil),
		NewRedisTradeInCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "", 0, nil),
	} {
		require.NotPanics(t, func() {
			c.Set(ctx, sampleRequest())
			c.Invalidate(ctx, "x", 1)
		})
		_, ok := c.Get(ctx, "x")
		require.False(t, ok)
	}
}

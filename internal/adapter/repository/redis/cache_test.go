package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goledger/internal/domain"
)

// newTestRedisClient returns a client bound to a fresh in-process server.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redislib.NewClient(&redislib.Options{Addr: mr.Addr()}), mr
}

func TestBalanceCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewBalanceCache(client)
	ctx := context.Background()

	balance := domain.NewAccountBalance(7, decimal.RequireFromString("150.25"), decimal.RequireFromString("40"))
	stored, err := cache.Set(ctx, balance, 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("balance:7"))
	assert.Equal(t, time.Minute, mr.TTL("balance:7"))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.AccountID)
	assert.Equal(t, "110.25", got.Balance.String())
	assert.Equal(t, "150.25", got.DebitTotal.String())
}

func TestBalanceCacheMiss(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	got, err := NewBalanceCache(client).Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBalanceCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewBalanceCache(client)
	ctx := context.Background()

	_, err := cache.Set(ctx, domain.NewAccountBalance(1, decimal.NewFromInt(5), decimal.Zero), 0, time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBalanceCacheInvalidate(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewBalanceCache(client)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := cache.Set(ctx, domain.NewAccountBalance(id, decimal.NewFromInt(id), decimal.Zero), 0, time.Minute)
		require.NoError(t, err)
	}

	require.NoError(t, cache.Invalidate(ctx, 1, 3))
	require.NoError(t, cache.Invalidate(ctx))

	assert.False(t, mr.Exists("balance:1"))
	assert.True(t, mr.Exists("balance:2"))
	assert.False(t, mr.Exists("balance:3"))
}

func TestBalanceCacheInvalidateBumpsVersion(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	cache := NewBalanceCache(client)
	ctx := context.Background()

	v, err := cache.Version(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, cache.Invalidate(ctx, 5))
	require.NoError(t, cache.Invalidate(ctx, 5))

	v, err = cache.Version(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

// A reader loads totals, a posting evicts the account, then the reader
// tries to store what it loaded. The old totals must not come back.
func TestBalanceCacheDropsWriteAfterInvalidate(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewBalanceCache(client)
	ctx := context.Background()

	version, err := cache.Version(ctx, 7)
	require.NoError(t, err)
	before := domain.NewAccountBalance(7, decimal.NewFromInt(100), decimal.Zero)

	require.NoError(t, cache.Invalidate(ctx, 7))

	stored, err := cache.Set(ctx, before, version, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("balance:7"))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	version, err = cache.Version(ctx, 7)
	require.NoError(t, err)
	after := domain.NewAccountBalance(7, decimal.NewFromInt(100), decimal.NewFromInt(30))

	stored, err = cache.Set(ctx, after, version, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	got, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "70", got.Balance.String())
}

func TestBalanceCacheCorruptValue(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	require.NoError(t, mr.Set("balance:9", "not-json"))

	_, err := NewBalanceCache(client).Get(context.Background(), 9)
	assert.Error(t, err)
}

func TestBalanceCacheConnectionError(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	_, err := NewBalanceCache(client).Get(context.Background(), 1)
	assert.Error(t, err)
}

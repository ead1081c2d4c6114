package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postEntryKey = "POST /api/v1/entries/7/post:3f9c"

func TestIdempotencyStoreLifecycle(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, postEntryKey, nil, time.Hour)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, resp)
	assert.Equal(t, time.Hour, mr.TTL(store.prefix+postEntryKey))

	exists, resp, err = store.CheckAndSet(ctx, postEntryKey, nil, time.Hour)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, PendingMarker, string(resp))

	body := []byte(`{"status":200,"body":{"entry_number":"JE-202403-0001","is_posted":true}}`)
	require.NoError(t, store.Update(ctx, postEntryKey, body, time.Hour))

	exists, resp, err = store.CheckAndSet(ctx, postEntryKey, nil, time.Hour)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.JSONEq(t, string(body), string(resp))
}

func TestIdempotencyStoreReleaseAllowsRetry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, postEntryKey, nil, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, postEntryKey))
	assert.False(t, mr.Exists(store.prefix+postEntryKey))

	exists, _, err := store.CheckAndSet(ctx, postEntryKey, nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdempotencyStoreClaimExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, postEntryKey, nil, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, postEntryKey, nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdempotencyStoreServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	_, _, err := NewIdempotencyStore(client).CheckAndSet(context.Background(), postEntryKey, nil, time.Minute)
	assert.Error(t, err)
}

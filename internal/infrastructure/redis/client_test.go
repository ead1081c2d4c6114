package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/2",
		WithPoolSize(7), WithPingTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 7, client.Options().PoolSize)
	assert.Equal(t, 2, client.Options().DB)

	require.NoError(t, client.Set(context.Background(), "ledger:ping", "1", 0).Err())
	assert.True(t, mr.DB(2).Exists("ledger:ping"))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestNewClientFailsWhenServerIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), "redis://"+addr, WithPingTimeout(200*time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

// Package redis opens the Redis connection shared by the balance cache, the
// idempotency store and the outbox stream publisher.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type clientOptions struct {
	poolSize    int
	pingTimeout time.Duration
}

// Option tunes NewClient.
type Option func(*clientOptions)

// WithPoolSize overrides the connection pool size from the URL.
func WithPoolSize(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// WithPingTimeout bounds the startup ping.
func WithPingTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// NewClient parses redisURL and returns a client once the server answers
// PING.
func NewClient(ctx context.Context, redisURL string, opts ...Option) (*redis.Client, error) {
	co := clientOptions{pingTimeout: 3 * time.Second}
	for _, opt := range opts {
		opt(&co)
	}

	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if co.poolSize > 0 {
		ropts.PoolSize = co.poolSize
	}

	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, co.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", ropts.Addr, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("addr", ropts.Addr).
		Int("db", ropts.DB).
		Int("pool_size", ropts.PoolSize).
		Msg("connected to redis")

	return client, nil
}

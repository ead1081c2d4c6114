package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Transient PostgreSQL error codes.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier implements usecase.Retrier with exponential backoff on transient
// lock errors. Every other error is returned after the first attempt.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
}

// RetrierOption tunes a Retrier.
type RetrierOption func(*Retrier)

// WithMaxAttempts caps the number of calls to the operation.
func WithMaxAttempts(n int) RetrierOption {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the first and the largest wait between attempts.
func WithBackoff(initial, maxWait time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.initialInterval = initial
		r.maxInterval = maxWait
	}
}

// NewRetrier creates a Retrier making at most four attempts.
func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{
		maxAttempts:     4,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsedTime:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retry runs operation until it succeeds, fails permanently or the attempts
// run out.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := operation()
		if err == nil {
			return nil
		}

		code, ok := transientCode(err)
		if !ok {
			return backoff.Permanent(err)
		}
		if attempt >= r.maxAttempts {
			return backoff.Permanent(fmt.Errorf("database busy after %d attempts: %w", attempt, err))
		}

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("pg_code", code).
			Int("attempt", attempt).
			Msg("transient database error, retrying")

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxAttempts)), ctx))

	return err
}

// transientCode reports the SQLSTATE of err when a retry may succeed.
func transientCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
		return pgErr.Code, true
	}
	return pgErr.Code, false
}

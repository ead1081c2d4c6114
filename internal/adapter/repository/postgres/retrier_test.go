package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goledger/internal/domain"
)

func fastRetrier(attempts int) *Retrier {
	return NewRetrier(WithMaxAttempts(attempts), WithBackoff(time.Millisecond, 2*time.Millisecond))
}

func TestRetrierRecoversFromDeadlockWhilePosting(t *testing.T) {
	r := fastRetrier(3)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("mark entry posted: %w", &pgconn.PgError{Code: pgErrDeadlock})
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrierGivesUpAfterMaxAttempts(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrLockNotAvailable}
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "database busy after 2 attempts")

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, pgErrLockNotAvailable, pgErr.Code)
}

func TestRetrierDoesNotRetryDomainErrors(t *testing.T) {
	r := fastRetrier(5)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("%w: debits 10 != credits 9", domain.ErrUnbalancedEntry)
	})

	assert.ErrorIs(t, err, domain.ErrUnbalancedEntry)
	assert.Equal(t, 1, attempts)
}

func TestRetrierStopsOnCancelledContext(t *testing.T) {
	r := NewRetrier(WithMaxAttempts(10), WithBackoff(50*time.Millisecond, 50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestTransientCode(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgErrSerializationFailure}, transient: true},
		{name: "deadlock", err: &pgconn.PgError{Code: pgErrDeadlock}, transient: true},
		{name: "lock not available", err: &pgconn.PgError{Code: pgErrLockNotAvailable}, transient: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, transient: false},
		{name: "plain error", err: errors.New("other"), transient: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := transientCode(tc.err)
			assert.Equal(t, tc.transient, ok)
		})
	}
}

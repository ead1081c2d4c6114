package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultBalanceCacheTTL bounds how long a cached posted balance is served.
	DefaultBalanceCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPendingMarker is the stored value of a key whose first
	// request has not finished yet.
	IdempotencyPendingMarker = "processing"

	defaultPageSize = 20
	maxPageSize     = 100
)

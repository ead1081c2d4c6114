package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
)

// AccountRepository defines data access for the chart of accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	Delete(ctx context.Context, tx Transaction, id int64) error
	Deactivate(ctx context.Context, tx Transaction, id int64, updatedAt time.Time) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	// FindExisting returns the subset of ids that exist, locking them against deletion.
	FindExisting(ctx context.Context, tx Transaction, ids []int64) ([]int64, error)
	// AncestorIDs returns the ids of every ancestor of id, nearest first.
	AncestorIDs(ctx context.Context, tx Transaction, id int64) ([]int64, error)
	ListChildren(ctx context.Context, tx Transaction, parentID int64) ([]*domain.Account, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.Account, error)
	List(ctx context.Context, filter domain.AccountFilter, limit, offset int) ([]*domain.Account, error)
	ListAll(ctx context.Context) ([]*domain.Account, error)
}

// AccountTypeRepository reads the static account type table.
type AccountTypeRepository interface {
	List(ctx context.Context) ([]domain.AccountType, error)
	GetByID(ctx context.Context, id int64) (domain.AccountType, error)
}

// JournalEntryRepository defines data access for journal entry headers.
type JournalEntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	UpdateHeader(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	// MarkPosted flips is_posted only while the entry is still a draft and
	// reports whether a row changed.
	MarkPosted(ctx context.Context, tx Transaction, id int64, postedAt time.Time) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.JournalEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.JournalEntry, error)
	List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error)
	Count(ctx context.Context) (int64, error)
	// LockNumberSequence serializes entry number generation for one period
	// until tx ends.
	LockNumberSequence(ctx context.Context, tx Transaction, period string) error
	// MaxSequence returns the highest sequence used in period. tx may be nil.
	MaxSequence(ctx context.Context, tx Transaction, period string) (int64, error)
}

// LedgerRepository stores ledger lines. It does not guard posted entries;
// the journal use case never mutates lines of a posted entry.
type LedgerRepository interface {
	AppendLines(ctx context.Context, tx Transaction, entryID int64, lines []domain.LedgerLine) error
	ReplaceLines(ctx context.Context, tx Transaction, entryID int64, lines []domain.LedgerLine) error
	// LinesForEntry returns the entry's lines ordered by line number. tx may be nil.
	LinesForEntry(ctx context.Context, tx Transaction, entryID int64) ([]domain.LedgerLine, error)
	LinesForAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.AccountLine, error)
	CountLinesForAccount(ctx context.Context, tx Transaction, accountID int64) (int64, error)
	PostedTotalsForAccount(ctx context.Context, accountID int64) (domain.AccountBalance, error)
	PostedTotals(ctx context.Context) (map[int64]domain.AccountBalance, error)
	// LedgerTotals sums every posted debit and credit.
	LedgerTotals(ctx context.Context) (debit, credit decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []string, publishedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// BalanceCache caches posted account balances.
type BalanceCache interface {
	Get(ctx context.Context, accountID int64) (*domain.AccountBalance, error)
	// Version returns a counter that Invalidate increments.
	Version(ctx context.Context, accountID int64) (int64, error)
	// Set stores balance only if the counter still equals version.
	Set(ctx context.Context, balance domain.AccountBalance, version int64, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, accountIDs ...int64) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

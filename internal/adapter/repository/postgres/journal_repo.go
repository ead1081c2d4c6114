package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/postgres/generated"
	"github.com/iho/goledger/internal/usecase"
)

// JournalEntryRepository implements usecase.JournalEntryRepository.
type JournalEntryRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewJournalEntryRepository creates a new JournalEntryRepository.
func NewJournalEntryRepository(db generated.DBTX) *JournalEntryRepository {
	return &JournalEntryRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts an entry header and assigns its id. A taken entry number is
// reported as domain.ErrPersistenceConflict.
func (r *JournalEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	id, err := queriesFor(r.db, tx).CreateJournalEntry(ctx, generated.CreateJournalEntryParams{
		EntryNumber: entry.EntryNumber,
		EntryDate:   timeToPgDate(entry.Date),
		Description: entry.Description,
		Reference:   stringPtrToPgText(entry.Reference),
		IsPosted:    entry.IsPosted,
		PostedAt:    timePtrToPgTimestamptz(entry.PostedAt),
		CreatedAt:   timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		if constraint, ok := constraintError(err, pgErrUniqueViolation); ok && constraint == constraintEntryNumber {
			return fmt.Errorf("%w: entry number %s", domain.ErrPersistenceConflict, entry.EntryNumber)
		}
		return err
	}

	entry.ID = id
	return nil
}

// UpdateHeader overwrites the date, description and reference of a draft entry.
func (r *JournalEntryRepository) UpdateHeader(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q := queriesFor(r.db, tx)
	n, err := q.UpdateJournalEntryHeader(ctx, generated.UpdateJournalEntryHeaderParams{
		ID:          entry.ID,
		EntryDate:   timeToPgDate(entry.Date),
		Description: entry.Description,
		Reference:   stringPtrToPgText(entry.Reference),
		UpdatedAt:   timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := q.GetJournalEntry(ctx, entry.ID); err != nil {
		if isNoRows(err) {
			return domain.ErrEntryNotFound
		}
		return err
	}
	return domain.ErrEntryAlreadyPosted
}

// MarkPosted posts a draft entry and reports whether a row changed.
func (r *JournalEntryRepository) MarkPosted(ctx context.Context, tx usecase.Transaction, id int64, postedAt time.Time) (bool, error) {
	n, err := queriesFor(r.db, tx).MarkJournalEntryPosted(ctx, generated.MarkJournalEntryPostedParams{
		ID:       id,
		PostedAt: timeToPgTimestamptz(postedAt),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID retrieves an entry header.
func (r *JournalEntryRepository) GetByID(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	row, err := r.queries.GetJournalEntry(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return rowToJournalEntry(row), nil
}

// GetByIDForUpdate retrieves an entry header with a row lock.
func (r *JournalEntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.JournalEntry, error) {
	row, err := queriesFor(r.db, tx).GetJournalEntryForUpdate(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return rowToJournalEntry(row), nil
}

// List returns entry headers newest first.
func (r *JournalEntryRepository) List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.queries.ListJournalEntries(ctx, generated.ListJournalEntriesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.JournalEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToJournalEntry(row))
	}
	return entries, nil
}

// Count returns the number of entries.
func (r *JournalEntryRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountJournalEntries(ctx)
}

// LockNumberSequence takes a transaction-scoped advisory lock keyed by period.
func (r *JournalEntryRepository) LockNumberSequence(ctx context.Context, tx usecase.Transaction, period string) error {
	return queriesFor(r.db, tx).LockEntryNumberPeriod(ctx, period)
}

// MaxSequence returns the highest numeric suffix used in period.
func (r *JournalEntryRepository) MaxSequence(ctx context.Context, tx usecase.Transaction, period string) (int64, error) {
	return queriesFor(r.db, tx).GetMaxEntrySequence(ctx, period)
}

func rowToJournalEntry(row generated.JournalEntry) *domain.JournalEntry {
	return &domain.JournalEntry{
		ID:          row.ID,
		EntryNumber: row.EntryNumber,
		Date:        timeToPgDate(row.EntryDate.Time).Time,
		Description: row.Description,
		Reference:   pgTextToPtr(row.Reference),
		IsPosted:    row.IsPosted,
		PostedAt:    pgTimestamptzToPtr(row.PostedAt),
		CreatedAt:   row.CreatedAt.Time.UTC(),
		UpdatedAt:   row.UpdatedAt.Time.UTC(),
	}
}

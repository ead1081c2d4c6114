package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// JournalEntryRepository implements usecase.JournalEntryRepository.
type JournalEntryRepository struct {
	store *Store
}

// NewJournalEntryRepository creates a new JournalEntryRepository.
func NewJournalEntryRepository(store *Store) *JournalEntryRepository {
	return &JournalEntryRepository{store: store}
}

// Create inserts an entry header and assigns its id. A taken entry number is
// reported as domain.ErrPersistenceConflict.
func (r *JournalEntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	return r.store.update(tx, func(st *state) error {
		for _, e := range st.entries {
			if e.EntryNumber == entry.EntryNumber {
				return fmt.Errorf("%w: entry number %s", domain.ErrPersistenceConflict, entry.EntryNumber)
			}
		}

		entry.ID = st.nextEntryID
		st.nextEntryID++
		st.entries[entry.ID] = copyEntry(entry)
		return nil
	})
}

// UpdateHeader overwrites the header fields of a draft entry.
func (r *JournalEntryRepository) UpdateHeader(_ context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	return r.store.update(tx, func(st *state) error {
		current := st.entries[entry.ID]
		if current == nil {
			return domain.ErrEntryNotFound
		}
		updated := copyEntry(entry)
		updated.IsPosted = current.IsPosted
		updated.PostedAt = current.PostedAt
		st.entries[entry.ID] = updated
		return nil
	})
}

// MarkPosted posts a draft entry and reports whether it changed.
func (r *JournalEntryRepository) MarkPosted(_ context.Context, tx usecase.Transaction, id int64, postedAt time.Time) (bool, error) {
	changed := false
	err := r.store.update(tx, func(st *state) error {
		e := st.entries[id]
		if e == nil || e.IsPosted {
			return nil
		}
		at := postedAt
		e.IsPosted = true
		e.PostedAt = &at
		e.UpdatedAt = postedAt
		changed = true
		return nil
	})
	return changed, err
}

// GetByID retrieves a committed entry header.
func (r *JournalEntryRepository) GetByID(_ context.Context, id int64) (*domain.JournalEntry, error) {
	return r.get(nil, id)
}

// GetByIDForUpdate retrieves an entry header inside tx.
func (r *JournalEntryRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id int64) (*domain.JournalEntry, error) {
	return r.get(tx, id)
}

func (r *JournalEntryRepository) get(tx usecase.Transaction, id int64) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := r.store.view(tx, func(st *state) error {
		e := st.entries[id]
		if e == nil {
			return domain.ErrEntryNotFound
		}
		entry = copyEntry(e)
		return nil
	})
	return entry, err
}

// List returns entry headers newest first.
func (r *JournalEntryRepository) List(_ context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	entries := []*domain.JournalEntry{}
	err := r.store.view(nil, func(st *state) error {
		for _, e := range st.entries {
			entries = append(entries, copyEntry(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID > entries[j].ID
	})

	return page(entries, limit, offset), nil
}

// Count returns the number of committed entries.
func (r *JournalEntryRepository) Count(_ context.Context) (int64, error) {
	var n int64
	err := r.store.view(nil, func(st *state) error {
		n = int64(len(st.entries))
		return nil
	})
	return n, err
}

// LockNumberSequence only checks tx; holding a write transaction already
// excludes every other writer.
func (r *JournalEntryRepository) LockNumberSequence(_ context.Context, tx usecase.Transaction, _ string) error {
	_, err := r.store.txState(tx)
	return err
}

// MaxSequence returns the highest sequence number used in period.
func (r *JournalEntryRepository) MaxSequence(_ context.Context, tx usecase.Transaction, period string) (int64, error) {
	var highest int64
	err := r.store.view(tx, func(st *state) error {
		for _, e := range st.entries {
			if seq, ok := domain.EntryNumberSequence(period, e.EntryNumber); ok && seq > highest {
				highest = seq
			}
		}
		return nil
	})
	return highest, err
}

// Package memory is an in-process storage backend with the same transactional
// guarantees as the postgres adapter. Writers are serialized; a transaction
// works on a private copy of the data that replaces the committed state on
// Commit. Reads outside a transaction only ever see committed data.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("memory: transaction already closed")

var errForeignTx = errors.New("memory: transaction does not belong to this store")

type state struct {
	types    []domain.AccountType
	accounts map[int64]*domain.Account
	entries  map[int64]*domain.JournalEntry
	lines    map[int64][]domain.LedgerLine
	outbox   []*domain.OutboxEvent

	nextAccountID int64
	nextEntryID   int64
	nextLineID    int64
}

func newState() *state {
	return &state{
		types:         domain.DefaultAccountTypes(),
		accounts:      make(map[int64]*domain.Account),
		entries:       make(map[int64]*domain.JournalEntry),
		lines:         make(map[int64][]domain.LedgerLine),
		nextAccountID: 1,
		nextEntryID:   1,
		nextLineID:    1,
	}
}

func (s *state) clone() *state {
	c := &state{
		types:         append([]domain.AccountType(nil), s.types...),
		accounts:      make(map[int64]*domain.Account, len(s.accounts)),
		entries:       make(map[int64]*domain.JournalEntry, len(s.entries)),
		lines:         make(map[int64][]domain.LedgerLine, len(s.lines)),
		outbox:        make([]*domain.OutboxEvent, len(s.outbox)),
		nextAccountID: s.nextAccountID,
		nextEntryID:   s.nextEntryID,
		nextLineID:    s.nextLineID,
	}
	for id, a := range s.accounts {
		c.accounts[id] = copyAccount(a)
	}
	for id, e := range s.entries {
		c.entries[id] = copyEntry(e)
	}
	for id, l := range s.lines {
		c.lines[id] = append([]domain.LedgerLine(nil), l...)
	}
	for i, ev := range s.outbox {
		c.outbox[i] = copyEvent(ev)
	}
	return c
}

// Store holds the committed ledger state and implements
// usecase.TransactionManager.
type Store struct {
	writer chan struct{}
	mu     sync.RWMutex
	state  *state
}

// NewStore returns an empty store seeded with the default account types.
func NewStore() *Store {
	return &Store{
		writer: make(chan struct{}, 1),
		state:  newState(),
	}
}

// Begin starts a write transaction, waiting for any other writer to finish.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	return &Tx{store: s, state: working}, nil
}

// Tx is a memory store transaction.
type Tx struct {
	store *Store
	state *state
	done  bool
}

// Commit publishes the transaction's changes.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true

	t.store.mu.Lock()
	t.store.state = t.state
	t.store.mu.Unlock()

	<-t.store.writer
	return nil
}

// Rollback discards the transaction's changes. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	<-t.store.writer
	return nil
}

func (s *Store) txState(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}
	if t.done {
		return nil, ErrTxClosed
	}
	return t.state, nil
}

// view runs fn against the transaction's working copy, or against the
// committed state when tx is nil.
func (s *Store) view(tx usecase.Transaction, fn func(*state) error) error {
	if tx == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(s.state)
	}

	st, err := s.txState(tx)
	if err != nil {
		return err
	}
	return fn(st)
}

// update runs fn inside tx.
func (s *Store) update(tx usecase.Transaction, fn func(*state) error) error {
	st, err := s.txState(tx)
	if err != nil {
		return err
	}
	return fn(st)
}

// autocommit runs fn as a standalone write.
func (s *Store) autocommit(ctx context.Context, fn func(*state) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.update(tx, fn); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.ParentID != nil {
		parent := *a.ParentID
		c.ParentID = &parent
	}
	return &c
}

func copyEntry(e *domain.JournalEntry) *domain.JournalEntry {
	c := *e
	c.Lines = nil
	if e.Reference != nil {
		ref := *e.Reference
		c.Reference = &ref
	}
	if e.PostedAt != nil {
		at := *e.PostedAt
		c.PostedAt = &at
	}
	return &c
}

func copyEvent(ev *domain.OutboxEvent) *domain.OutboxEvent {
	c := *ev
	if ev.PublishedAt != nil {
		at := *ev.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}

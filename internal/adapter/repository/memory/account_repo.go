package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create inserts an account and assigns its id.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.update(tx, func(st *state) error {
		if accountByNumber(st, account.AccountNumber) != nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, account.AccountNumber)
		}
		if account.ParentID != nil && st.accounts[*account.ParentID] == nil {
			return fmt.Errorf("%w: %d", domain.ErrParentNotFound, *account.ParentID)
		}

		account.ID = st.nextAccountID
		st.nextAccountID++
		st.accounts[account.ID] = copyAccount(account)
		return nil
	})
}

// Update overwrites an existing account.
func (r *AccountRepository) Update(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.update(tx, func(st *state) error {
		if st.accounts[account.ID] == nil {
			return domain.ErrAccountNotFound
		}
		if other := accountByNumber(st, account.AccountNumber); other != nil && other.ID != account.ID {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, account.AccountNumber)
		}
		if account.ParentID != nil && st.accounts[*account.ParentID] == nil {
			return fmt.Errorf("%w: %d", domain.ErrParentNotFound, *account.ParentID)
		}

		st.accounts[account.ID] = copyAccount(account)
		return nil
	})
}

// Delete removes an account that no line or child references.
func (r *AccountRepository) Delete(_ context.Context, tx usecase.Transaction, id int64) error {
	return r.store.update(tx, func(st *state) error {
		if st.accounts[id] == nil {
			return domain.ErrAccountNotFound
		}
		if countLines(st, id) > 0 {
			return fmt.Errorf("account %d is referenced by ledger lines", id)
		}
		for _, a := range st.accounts {
			if a.ParentID != nil && *a.ParentID == id {
				return fmt.Errorf("account %d has child accounts", id)
			}
		}

		delete(st.accounts, id)
		return nil
	})
}

// Deactivate marks an account inactive.
func (r *AccountRepository) Deactivate(_ context.Context, tx usecase.Transaction, id int64, updatedAt time.Time) error {
	return r.store.update(tx, func(st *state) error {
		a := st.accounts[id]
		if a == nil {
			return domain.ErrAccountNotFound
		}
		a.IsActive = false
		a.UpdatedAt = updatedAt
		return nil
	})
}

// GetByID retrieves a committed account.
func (r *AccountRepository) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	return r.get(nil, id)
}

// GetByIDForUpdate retrieves an account inside tx.
func (r *AccountRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	return r.get(tx, id)
}

func (r *AccountRepository) get(tx usecase.Transaction, id int64) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.view(tx, func(st *state) error {
		a := st.accounts[id]
		if a == nil {
			return domain.ErrAccountNotFound
		}
		account = copyAccount(a)
		return nil
	})
	return account, err
}

// GetByNumber retrieves a committed account by number.
func (r *AccountRepository) GetByNumber(_ context.Context, number string) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.view(nil, func(st *state) error {
		a := accountByNumber(st, number)
		if a == nil {
			return domain.ErrAccountNotFound
		}
		account = copyAccount(a)
		return nil
	})
	return account, err
}

// FindExisting returns the subset of ids that exist.
func (r *AccountRepository) FindExisting(_ context.Context, tx usecase.Transaction, ids []int64) ([]int64, error) {
	var found []int64
	err := r.store.view(tx, func(st *state) error {
		for _, id := range ids {
			if st.accounts[id] != nil {
				found = append(found, id)
			}
		}
		return nil
	})
	return found, err
}

// AncestorIDs walks the parent chain of id, nearest first.
func (r *AccountRepository) AncestorIDs(_ context.Context, tx usecase.Transaction, id int64) ([]int64, error) {
	var ancestors []int64
	err := r.store.view(tx, func(st *state) error {
		seen := map[int64]bool{id: true}
		current := st.accounts[id]
		for current != nil && current.ParentID != nil {
			parentID := *current.ParentID
			if seen[parentID] {
				break
			}
			seen[parentID] = true
			ancestors = append(ancestors, parentID)
			current = st.accounts[parentID]
		}
		return nil
	})
	return ancestors, err
}

// ListChildren returns the direct children of parentID ordered by number.
func (r *AccountRepository) ListChildren(_ context.Context, tx usecase.Transaction, parentID int64) ([]*domain.Account, error) {
	return r.collect(tx, func(a *domain.Account) bool {
		return a.ParentID != nil && *a.ParentID == parentID
	}, 0, 0)
}

// Search matches query case-insensitively against number and name.
func (r *AccountRepository) Search(_ context.Context, query string, limit int) ([]*domain.Account, error) {
	q := strings.ToLower(query)
	return r.collect(nil, func(a *domain.Account) bool {
		return strings.Contains(strings.ToLower(a.AccountNumber), q) ||
			strings.Contains(strings.ToLower(a.Name), q)
	}, limit, 0)
}

// List returns accounts passing filter ordered by number.
func (r *AccountRepository) List(_ context.Context, filter domain.AccountFilter, limit, offset int) ([]*domain.Account, error) {
	return r.collect(nil, filter.Matches, limit, offset)
}

// ListAll returns every account ordered by number.
func (r *AccountRepository) ListAll(_ context.Context) ([]*domain.Account, error) {
	return r.collect(nil, func(*domain.Account) bool { return true }, 0, 0)
}

// collect filters and pages accounts. A zero limit means no limit.
func (r *AccountRepository) collect(tx usecase.Transaction, keep func(*domain.Account) bool, limit, offset int) ([]*domain.Account, error) {
	accounts := []*domain.Account{}
	err := r.store.view(tx, func(st *state) error {
		for _, a := range st.accounts {
			if keep(a) {
				accounts = append(accounts, copyAccount(a))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})

	return page(accounts, limit, offset), nil
}

// AccountTypeRepository implements usecase.AccountTypeRepository.
type AccountTypeRepository struct {
	store *Store
}

// NewAccountTypeRepository creates a new AccountTypeRepository.
func NewAccountTypeRepository(store *Store) *AccountTypeRepository {
	return &AccountTypeRepository{store: store}
}

// List returns all account types ordered by id.
func (r *AccountTypeRepository) List(_ context.Context) ([]domain.AccountType, error) {
	var types []domain.AccountType
	err := r.store.view(nil, func(st *state) error {
		types = append(types, st.types...)
		return nil
	})
	return types, err
}

// GetByID returns one account type.
func (r *AccountTypeRepository) GetByID(_ context.Context, id int64) (domain.AccountType, error) {
	var found domain.AccountType
	err := r.store.view(nil, func(st *state) error {
		for _, t := range st.types {
			if t.ID == id {
				found = t
				return nil
			}
		}
		return fmt.Errorf("%w: %d", domain.ErrUnknownAccountType, id)
	})
	return found, err
}

func accountByNumber(st *state, number string) *domain.Account {
	for _, a := range st.accounts {
		if a.AccountNumber == number {
			return a
		}
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

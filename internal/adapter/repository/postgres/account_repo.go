package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/postgres/generated"
	"github.com/iho/goledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts an account and assigns its id.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	id, err := queriesFor(r.db, tx).CreateAccount(ctx, generated.CreateAccountParams{
		AccountNumber:   account.AccountNumber,
		Name:            account.Name,
		Description:     account.Description,
		TypeID:          account.TypeID,
		ParentAccountID: int64PtrToPgInt8(account.ParentID),
		IsActive:        account.IsActive,
		CreatedAt:       timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:       timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return mapAccountWriteError(err, account)
	}

	account.ID = id
	return nil
}

// Update overwrites every mutable column of the account.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	err := queriesFor(r.db, tx).UpdateAccount(ctx, generated.UpdateAccountParams{
		ID:              account.ID,
		AccountNumber:   account.AccountNumber,
		Name:            account.Name,
		Description:     account.Description,
		TypeID:          account.TypeID,
		ParentAccountID: int64PtrToPgInt8(account.ParentID),
		IsActive:        account.IsActive,
		UpdatedAt:       timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return mapAccountWriteError(err, account)
	}
	return nil
}

// Delete removes an account row. Accounts still referenced by lines or
// children are rejected by foreign keys.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id int64) error {
	if err := queriesFor(r.db, tx).DeleteAccount(ctx, id); err != nil {
		if _, ok := constraintError(err, pgErrForeignKeyViolation); ok {
			return fmt.Errorf("account %d is still referenced: %w", id, err)
		}
		return err
	}
	return nil
}

// Deactivate marks the account inactive.
func (r *AccountRepository) Deactivate(ctx context.Context, tx usecase.Transaction, id int64, updatedAt time.Time) error {
	return queriesFor(r.db, tx).DeactivateAccount(ctx, generated.DeactivateAccountParams{
		ID:        id,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account with a row lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	row, err := queriesFor(r.db, tx).GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByNumber(ctx, number)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return rowToAccount(row), nil
}

// FindExisting returns the ids that exist, holding a share lock on each row
// until tx ends.
func (r *AccountRepository) FindExisting(ctx context.Context, tx usecase.Transaction, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return queriesFor(r.db, tx).LockExistingAccounts(ctx, ids)
}

// AncestorIDs walks parent links upwards, nearest ancestor first.
func (r *AccountRepository) AncestorIDs(ctx context.Context, tx usecase.Transaction, id int64) ([]int64, error) {
	return queriesFor(r.db, tx).GetAccountAncestorIDs(ctx, id)
}

// ListChildren returns the direct children of parentID.
func (r *AccountRepository) ListChildren(ctx context.Context, tx usecase.Transaction, parentID int64) ([]*domain.Account, error) {
	rows, err := queriesFor(r.db, tx).ListChildAccounts(ctx, int64PtrToPgInt8(&parentID))
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// Search matches query case-insensitively against account numbers and names.
func (r *AccountRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Account, error) {
	rows, err := r.queries.SearchAccounts(ctx, generated.SearchAccountsParams{
		Pattern: containsPattern(query),
		Limit:   int32(limit),
	})
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// List returns one page of accounts ordered by account number.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		TypeID:     int64PtrToPgInt8(filter.TypeID),
		ActiveOnly: filter.ActiveOnly,
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// ListAll returns every account ordered by account number.
func (r *AccountRepository) ListAll(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.queries.ListAllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

func mapAccountWriteError(err error, account *domain.Account) error {
	if constraint, ok := constraintError(err, pgErrUniqueViolation); ok && constraint == constraintAccountNumber {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, account.AccountNumber)
	}
	if constraint, ok := constraintError(err, pgErrForeignKeyViolation); ok {
		switch constraint {
		case constraintAccountParent:
			return domain.ErrParentNotFound
		case constraintAccountType:
			return fmt.Errorf("%w: %d", domain.ErrUnknownAccountType, account.TypeID)
		}
	}
	if constraint, ok := constraintError(err, pgErrCheckViolation); ok && constraint == constraintNotOwnParent {
		return domain.ErrHierarchyCycle
	}
	return err
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		Name:          row.Name,
		Description:   row.Description,
		TypeID:        row.TypeID,
		ParentID:      pgInt8ToPtr(row.ParentAccountID),
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt.Time.UTC(),
		UpdatedAt:     row.UpdatedAt.Time.UTC(),
	}
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}
	return accounts
}

// AccountTypeRepository implements usecase.AccountTypeRepository.
type AccountTypeRepository struct {
	queries *generated.Queries
}

// NewAccountTypeRepository creates a new AccountTypeRepository.
func NewAccountTypeRepository(db generated.DBTX) *AccountTypeRepository {
	return &AccountTypeRepository{queries: generated.New(db)}
}

// List returns the seeded account types ordered by id.
func (r *AccountTypeRepository) List(ctx context.Context) ([]domain.AccountType, error) {
	rows, err := r.queries.ListAccountTypes(ctx)
	if err != nil {
		return nil, err
	}

	types := make([]domain.AccountType, 0, len(rows))
	for _, row := range rows {
		types = append(types, domain.AccountType{ID: row.ID, Name: row.Name})
	}
	return types, nil
}

// GetByID retrieves one account type.
func (r *AccountTypeRepository) GetByID(ctx context.Context, id int64) (domain.AccountType, error) {
	row, err := r.queries.GetAccountType(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return domain.AccountType{}, fmt.Errorf("%w: %d", domain.ErrUnknownAccountType, id)
		}
		return domain.AccountType{}, err
	}
	return domain.AccountType{ID: row.ID, Name: row.Name}, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
)

// AccountUseCase manages the chart of accounts.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	typeRepo    AccountTypeRepository
	ledgerRepo  LedgerRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cache       BalanceCache
	metrics     *metrics.Metrics
	now         Clock
	searchLimit int
}

// NewAccountUseCase creates a new AccountUseCase. cache and metrics may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	typeRepo AccountTypeRepository,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cache BalanceCache,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		typeRepo:    typeRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cache:       cache,
		metrics:     metrics,
		now:         systemClock,
		searchLimit: domain.DefaultSearchLimit,
	}
}

// WithClock replaces the time source.
func (uc *AccountUseCase) WithClock(now Clock) *AccountUseCase {
	uc.now = now
	return uc
}

// WithSearchLimit caps SearchAccounts results.
func (uc *AccountUseCase) WithSearchLimit(limit int) *AccountUseCase {
	if limit > 0 {
		uc.searchLimit = limit
	}
	return uc
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	ParentID      *int64
	AccountNumber string
	Name          string
	Description   string
	TypeID        int64
}

// CreateAccount registers a new account. A parent, when given, must exist and
// share the account's type.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	number := strings.TrimSpace(input.AccountNumber)
	if err := domain.ValidateAccountNumber(number); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	if _, err := uc.typeRepo.GetByID(ctx, input.TypeID); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.ensureNumberFree(txCtx, number, 0); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := uc.lockParent(txCtx, tx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.TypeID != input.TypeID {
			return nil, fmt.Errorf("%w: parent %s has type %d, account has type %d",
				domain.ErrTypeMismatch, parent.AccountNumber, parent.TypeID, input.TypeID)
		}
	}

	now := uc.now()
	account := &domain.Account{
		AccountNumber: number,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		TypeID:        input.TypeID,
		ParentID:      input.ParentID,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   strconv.FormatInt(account.ID, 10),
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountCreated,
		Payload:       domain.AccountCreatedPayload(account),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// UpdateAccountInput carries a partial update. Nil fields are left unchanged.
// ClearParent moves the account to the top level.
type UpdateAccountInput struct {
	AccountNumber *string
	Name          *string
	Description   *string
	TypeID        *int64
	ParentID      *int64
	IsActive      *bool
	ClearParent   bool
}

// UpdateAccount applies a partial update and re-validates the account's place
// in the hierarchy.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, id int64, input UpdateAccountInput) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if input.AccountNumber != nil {
		number := strings.TrimSpace(*input.AccountNumber)
		if err := domain.ValidateAccountNumber(number); err != nil {
			return nil, err
		}
		if number != account.AccountNumber {
			if err := uc.ensureNumberFree(txCtx, number, account.ID); err != nil {
				return nil, err
			}
			account.AccountNumber = number
		}
	}

	if input.Name != nil {
		if err := domain.ValidateAccountName(*input.Name); err != nil {
			return nil, err
		}
		account.Name = strings.TrimSpace(*input.Name)
	}

	if input.Description != nil {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
		account.Description = *input.Description
	}

	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}

	typeChanged := input.TypeID != nil && *input.TypeID != account.TypeID
	if typeChanged {
		if _, err := uc.typeRepo.GetByID(txCtx, *input.TypeID); err != nil {
			return nil, err
		}
		children, err := uc.accountRepo.ListChildren(txCtx, tx, account.ID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if child.TypeID != *input.TypeID {
				return nil, fmt.Errorf("%w: child %s has type %d", domain.ErrTypeMismatch, child.AccountNumber, child.TypeID)
			}
		}
		account.TypeID = *input.TypeID
	}

	parentChanged := false
	switch {
	case input.ClearParent:
		parentChanged = account.ParentID != nil
		account.ParentID = nil
	case input.ParentID != nil:
		if account.ParentID == nil || *account.ParentID != *input.ParentID {
			if *input.ParentID == account.ID {
				return nil, domain.ErrHierarchyCycle
			}
			ancestors, err := uc.accountRepo.AncestorIDs(txCtx, tx, *input.ParentID)
			if err != nil {
				return nil, err
			}
			if slices.Contains(ancestors, account.ID) {
				return nil, fmt.Errorf("%w: account %d is an ancestor of %d", domain.ErrHierarchyCycle, account.ID, *input.ParentID)
			}
			parentChanged = true
			parentID := *input.ParentID
			account.ParentID = &parentID
		}
	}

	if account.ParentID != nil && (parentChanged || typeChanged) {
		parent, err := uc.lockParent(txCtx, tx, *account.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.TypeID != account.TypeID {
			return nil, fmt.Errorf("%w: parent %s has type %d, account has type %d",
				domain.ErrTypeMismatch, parent.AccountNumber, parent.TypeID, account.TypeID)
		}
	}

	account.UpdatedAt = uc.now()

	if err := uc.accountRepo.Update(txCtx, tx, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its account number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return uc.accountRepo.GetByNumber(ctx, strings.TrimSpace(number))
}

// GetAccountWithBalance returns the account together with its type and
// posted balance.
func (uc *AccountUseCase) GetAccountWithBalance(ctx context.Context, id int64) (*domain.AccountWithBalance, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	accountType, err := uc.typeRepo.GetByID(ctx, account.TypeID)
	if err != nil {
		return nil, err
	}

	balance, err := uc.ledgerRepo.PostedTotalsForAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.AccountWithBalance{Account: account, Type: accountType, Balance: balance}, nil
}

// SearchAccounts matches query against account numbers and names.
func (uc *AccountUseCase) SearchAccounts(ctx context.Context, query string) ([]*domain.Account, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Account{}, nil
	}
	return uc.accountRepo.Search(ctx, query, uc.searchLimit)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	TypeID     *int64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ListAccounts lists accounts ordered by account number.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	offset := max(input.Offset, 0)
	filter := domain.AccountFilter{TypeID: input.TypeID, ActiveOnly: input.ActiveOnly}
	return uc.accountRepo.List(ctx, filter, clampPage(input.Limit), offset)
}

// ListAccountTypes returns the static account types.
func (uc *AccountUseCase) ListAccountTypes(ctx context.Context) ([]domain.AccountType, error) {
	return uc.typeRepo.List(ctx)
}

// DeleteResult reports how an account was removed.
type DeleteResult struct {
	HardDeleted bool
}

// DeleteAccount removes an account that was never used and deactivates one
// that carries ledger lines or child accounts.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id int64) (DeleteResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return DeleteResult{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	lines, err := uc.ledgerRepo.CountLinesForAccount(txCtx, tx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	children, err := uc.accountRepo.ListChildren(txCtx, tx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{HardDeleted: lines == 0 && len(children) == 0}
	if result.HardDeleted {
		err = uc.accountRepo.Delete(txCtx, tx, id)
	} else {
		err = uc.accountRepo.Deactivate(txCtx, tx, id, uc.now())
	}
	if err != nil {
		return DeleteResult{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return DeleteResult{}, err
	}

	mode := "soft"
	if result.HardDeleted {
		mode = "hard"
	}

	zerolog.Ctx(ctx).Info().
		Int64("account_id", id).
		Str("account_number", account.AccountNumber).
		Str("mode", mode).
		Int64("lines", lines).
		Int("children", len(children)).
		Msg("account deleted")

	if uc.metrics != nil {
		uc.metrics.AccountsDeleted.WithLabelValues(mode).Inc()
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, id); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int64("account_id", id).Msg("balance cache invalidation failed")
		}
	}

	return result, nil
}

// BuildHierarchy returns the active accounts of a type as a forest, each node
// carrying its posted balance. Accounts whose parent is inactive become roots.
func (uc *AccountUseCase) BuildHierarchy(ctx context.Context, typeID int64) ([]*domain.AccountNode, error) {
	if _, err := uc.typeRepo.GetByID(ctx, typeID); err != nil {
		return nil, err
	}

	all, err := uc.accountRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	filter := domain.AccountFilter{TypeID: &typeID, ActiveOnly: true}
	accounts := make([]*domain.Account, 0, len(all))
	for _, a := range all {
		if filter.Matches(a) {
			accounts = append(accounts, a)
		}
	}

	balances, err := uc.ledgerRepo.PostedTotals(ctx)
	if err != nil {
		return nil, err
	}

	return domain.BuildAccountTree(accounts, balances), nil
}

// SeedChart creates the accounts of chart that do not exist yet and returns
// how many were created. Parents must precede their children.
func (uc *AccountUseCase) SeedChart(ctx context.Context, chart []domain.ChartAccount) (int, error) {
	ids := make(map[string]int64, len(chart))
	created := 0

	for _, entry := range chart {
		existing, err := uc.accountRepo.GetByNumber(ctx, entry.Number)
		if err == nil {
			ids[entry.Number] = existing.ID
			continue
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return created, err
		}

		input := CreateAccountInput{
			AccountNumber: entry.Number,
			Name:          entry.Name,
			TypeID:        entry.TypeID,
		}
		if entry.ParentNumber != "" {
			parentID, ok := ids[entry.ParentNumber]
			if !ok {
				parent, err := uc.accountRepo.GetByNumber(ctx, entry.ParentNumber)
				if err != nil {
					return created, fmt.Errorf("%w: %s (parent of %s)", domain.ErrParentNotFound, entry.ParentNumber, entry.Number)
				}
				parentID = parent.ID
			}
			input.ParentID = &parentID
		}

		account, err := uc.CreateAccount(ctx, input)
		if err != nil {
			return created, fmt.Errorf("seed account %s: %w", entry.Number, err)
		}
		ids[entry.Number] = account.ID
		created++
	}

	if created > 0 {
		zerolog.Ctx(ctx).Info().Int("created", created).Msg("chart of accounts seeded")
	}

	return created, nil
}

func (uc *AccountUseCase) ensureNumberFree(ctx context.Context, number string, selfID int64) error {
	existing, err := uc.accountRepo.GetByNumber(ctx, number)
	if err == nil {
		if existing.ID != selfID {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, number)
		}
		return nil
	}
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil
	}
	return err
}

func (uc *AccountUseCase) lockParent(ctx context.Context, tx Transaction, parentID int64) (*domain.Account, error) {
	parent, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, parentID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %d", domain.ErrParentNotFound, parentID)
	}
	return parent, err
}

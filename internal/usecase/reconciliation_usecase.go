package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
)

// ReconciliationUseCase compares cached balances with the ledger and evicts
// stale cache entries.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	cache       BalanceCache
	now         Clock
}

// NewReconciliationUseCase creates a new reconciliation use case. cache may be nil.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	ledgerRepo LedgerRepository,
	cache BalanceCache,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		cache:       cache,
		now:         systemClock,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	LastChecked       time.Time
	CachedBalance     *decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	AccountID         int64
	IsReconciled      bool
}

// ReconcileAccount checks one account's cached balance against its posted
// lines. A mismatching cache entry is invalidated.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID int64) (*ReconciliationResult, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	calculated, err := uc.ledgerRepo.PostedTotalsForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return uc.compare(ctx, calculated)
}

// ReconcileAllAccounts reconciles all accounts in the system
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	accounts, err := uc.accountRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := uc.ledgerRepo.PostedTotals(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, 0, len(accounts))
	for _, account := range accounts {
		calculated, ok := totals[account.ID]
		if !ok {
			calculated = domain.NewAccountBalance(account.ID, decimal.Zero, decimal.Zero)
		}

		result, err := uc.compare(ctx, calculated)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %d: %w", account.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (uc *ReconciliationUseCase) compare(ctx context.Context, calculated domain.AccountBalance) (*ReconciliationResult, error) {
	result := &ReconciliationResult{
		AccountID:         calculated.AccountID,
		CalculatedBalance: calculated.Balance,
		Difference:        decimal.Zero,
		IsReconciled:      true,
		LastChecked:       uc.now(),
	}

	if uc.cache == nil {
		return result, nil
	}

	cached, err := uc.cache.Get(ctx, calculated.AccountID)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return result, nil
	}

	result.CachedBalance = &cached.Balance
	result.Difference = cached.Balance.Sub(calculated.Balance)
	if result.Difference.IsZero() {
		return result, nil
	}

	result.IsReconciled = false
	zerolog.Ctx(ctx).Warn().
		Int64("account_id", calculated.AccountID).
		Str("cached", cached.Balance.String()).
		Str("calculated", calculated.Balance.String()).
		Msg("stale balance cache entry")

	if err := uc.cache.Invalidate(ctx, calculated.AccountID); err != nil {
		return nil, err
	}

	return result, nil
}

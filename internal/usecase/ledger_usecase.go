package usecase

import (
	"context"
	"fmt"

	"github.com/iho/goledger/internal/domain"
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accountRepo AccountRepository, ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// GetAccountLines lists the account's ledger lines, newest entry first. Lines
// of draft entries are included and flagged.
func (uc *LedgerUseCase) GetAccountLines(ctx context.Context, accountID int64, limit, offset int) ([]domain.AccountLine, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return uc.ledgerRepo.LinesForAccount(ctx, accountID, clampPage(limit), max(offset, 0))
}

// CheckConsistency verifies that total posted debits equal total posted credits.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	debit, credit, err := uc.ledgerRepo.LedgerTotals(ctx)
	if err != nil {
		return false, err
	}

	if !debit.Equal(credit) {
		return false, fmt.Errorf("%w: debits %s, credits %s", domain.ErrInconsistentLedger, debit.String(), credit.String())
	}

	return true, nil
}

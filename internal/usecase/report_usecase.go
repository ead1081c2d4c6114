package usecase

import (
	"context"

	"github.com/iho/goledger/internal/domain"
)

// ReportUseCase produces financial reports.
type ReportUseCase struct {
	accountRepo AccountRepository
	typeRepo    AccountTypeRepository
	ledgerRepo  LedgerRepository
	now         Clock
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(accountRepo AccountRepository, typeRepo AccountTypeRepository, ledgerRepo LedgerRepository) *ReportUseCase {
	return &ReportUseCase{
		accountRepo: accountRepo,
		typeRepo:    typeRepo,
		ledgerRepo:  ledgerRepo,
		now:         systemClock,
	}
}

// WithClock replaces the time source.
func (uc *ReportUseCase) WithClock(now Clock) *ReportUseCase {
	uc.now = now
	return uc
}

// GetTrialBalance reports posted totals for every account with posted
// activity, inactive accounts included.
func (uc *ReportUseCase) GetTrialBalance(ctx context.Context) (*domain.TrialBalance, error) {
	accounts, err := uc.accountRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	types, err := uc.typeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	typeByID := make(map[int64]domain.AccountType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	balances, err := uc.ledgerRepo.PostedTotals(ctx)
	if err != nil {
		return nil, err
	}

	return domain.NewTrialBalance(accounts, typeByID, balances, uc.now()), nil
}

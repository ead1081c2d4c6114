package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
	"github.com/iho/goledger/internal/usecase"
	"github.com/iho/goledger/internal/usecase/mocks"
)

type accountMocks struct {
	tx       *mocks.MockTransaction
	accounts *mocks.MockAccountRepository
	types    *mocks.MockAccountTypeRepository
	ledger   *mocks.MockLedgerRepository
	outbox   *mocks.MockOutboxRepository
	cache    *mocks.MockBalanceCache
	metrics  *metrics.Metrics
}

func newAccountMocks(t *testing.T) (*accountMocks, *usecase.AccountUseCase) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)
	m := &accountMocks{
		tx:       mocks.NewMockTransaction(ctrl),
		accounts: mocks.NewMockAccountRepository(ctrl),
		types:    mocks.NewMockAccountTypeRepository(ctrl),
		ledger:   mocks.NewMockLedgerRepository(ctrl),
		outbox:   mocks.NewMockOutboxRepository(ctrl),
		cache:    mocks.NewMockBalanceCache(ctrl),
		metrics:  metrics.NewWithRegistry(prometheus.NewRegistry()),
	}

	txMgr.EXPECT().Begin(gomock.Any()).Return(m.tx, nil).AnyTimes()
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	idGen.EXPECT().Generate().Return("evt").AnyTimes()

	uc := usecase.NewAccountUseCase(txMgr, m.accounts, m.types, m.ledger, m.outbox, idGen, m.cache, m.metrics).
		WithClock(func() time.Time { return fixedNow })

	return m, uc
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	parentID := int64(1)

	tests := []struct {
		name       string
		input      usecase.CreateAccountInput
		setupMocks func(*accountMocks)
		wantErr    error
	}{
		{
			name:  "top level account",
			input: usecase.CreateAccountInput{AccountNumber: " 1000 ", Name: "Assets", TypeID: domain.AccountTypeAsset},
			setupMocks: func(m *accountMocks) {
				m.types.EXPECT().GetByID(gomock.Any(), domain.AccountTypeAsset).Return(domain.AccountType{ID: 1, Name: "asset"}, nil)
				m.accounts.EXPECT().GetByNumber(gomock.Any(), "1000").Return(nil, domain.ErrAccountNotFound)
				m.accounts.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ usecase.Transaction, a *domain.Account) error {
						a.ID = 11
						return nil
					})
				m.outbox.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ usecase.Transaction, ev *domain.OutboxEvent) error {
						assert.Equal(t, domain.EventTypeAccountCreated, ev.EventType)
						assert.Equal(t, "11", ev.AggregateID)
						return nil
					})
				m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
			},
		},
		{
			name:    "invalid number",
			input:   usecase.CreateAccountInput{AccountNumber: "10 00", Name: "Assets", TypeID: domain.AccountTypeAsset},
			wantErr: domain.ErrInvalidAccountNumber,
		},
		{
			name:  "unknown type",
			input: usecase.CreateAccountInput{AccountNumber: "9000", Name: "Odd", TypeID: 9},
			setupMocks: func(m *accountMocks) {
				m.types.EXPECT().GetByID(gomock.Any(), int64(9)).Return(domain.AccountType{}, domain.ErrUnknownAccountType)
			},
			wantErr: domain.ErrUnknownAccountType,
		},
		{
			name:  "duplicate number",
			input: usecase.CreateAccountInput{AccountNumber: "1000", Name: "Assets", TypeID: domain.AccountTypeAsset},
			setupMocks: func(m *accountMocks) {
				m.types.EXPECT().GetByID(gomock.Any(), domain.AccountTypeAsset).Return(domain.AccountType{ID: 1}, nil)
				m.accounts.EXPECT().GetByNumber(gomock.Any(), "1000").Return(&domain.Account{ID: 3}, nil)
			},
			wantErr: domain.ErrDuplicateAccountNumber,
		},
		{
			name:  "parent not found",
			input: usecase.CreateAccountInput{AccountNumber: "1010", Name: "Cash", TypeID: domain.AccountTypeAsset, ParentID: &parentID},
			setupMocks: func(m *accountMocks) {
				m.types.EXPECT().GetByID(gomock.Any(), domain.AccountTypeAsset).Return(domain.AccountType{ID: 1}, nil)
				m.accounts.EXPECT().GetByNumber(gomock.Any(), "1010").Return(nil, domain.ErrAccountNotFound)
				m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, parentID).Return(nil, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrParentNotFound,
		},
		{
			name:  "parent type mismatch",
			input: usecase.CreateAccountInput{AccountNumber: "1010", Name: "Cash", TypeID: domain.AccountTypeAsset, ParentID: &parentID},
			setupMocks: func(m *accountMocks) {
				m.types.EXPECT().GetByID(gomock.Any(), domain.AccountTypeAsset).Return(domain.AccountType{ID: 1}, nil)
				m.accounts.EXPECT().GetByNumber(gomock.Any(), "1010").Return(nil, domain.ErrAccountNotFound)
				m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, parentID).
					Return(&domain.Account{ID: parentID, AccountNumber: "2000", TypeID: domain.AccountTypeLiability}, nil)
			},
			wantErr: domain.ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, uc := newAccountMocks(t)
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			account, err := uc.CreateAccount(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, testutil.ToFloat64(m.metrics.AccountsCreated))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "1000", account.AccountNumber)
			assert.True(t, account.IsActive)
			assert.Equal(t, fixedNow, account.CreatedAt)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.AccountsCreated))
		})
	}
}

func TestAccountUseCase_DeleteAccount(t *testing.T) {
	tests := []struct {
		name     string
		lines    int64
		children []*domain.Account
		wantHard bool
	}{
		{name: "unused account is removed", wantHard: true},
		{name: "account with lines is deactivated", lines: 3},
		{name: "account with children is deactivated", children: []*domain.Account{{ID: 9}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, uc := newAccountMocks(t)

			m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, int64(4)).Return(&domain.Account{ID: 4, AccountNumber: "5010"}, nil)
			m.ledger.EXPECT().CountLinesForAccount(gomock.Any(), m.tx, int64(4)).Return(tt.lines, nil)
			m.accounts.EXPECT().ListChildren(gomock.Any(), m.tx, int64(4)).Return(tt.children, nil)
			if tt.wantHard {
				m.accounts.EXPECT().Delete(gomock.Any(), m.tx, int64(4)).Return(nil)
			} else {
				m.accounts.EXPECT().Deactivate(gomock.Any(), m.tx, int64(4), fixedNow).Return(nil)
			}
			m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
			m.cache.EXPECT().Invalidate(gomock.Any(), int64(4)).Return(nil)

			res, err := uc.DeleteAccount(context.Background(), 4)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHard, res.HardDeleted)

			mode := "soft"
			if tt.wantHard {
				mode = "hard"
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.AccountsDeleted.WithLabelValues(mode)))
		})
	}
}

func TestAccountUseCase_DeleteAccount_CommitFailure(t *testing.T) {
	m, uc := newAccountMocks(t)

	m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, int64(4)).Return(&domain.Account{ID: 4}, nil)
	m.ledger.EXPECT().CountLinesForAccount(gomock.Any(), m.tx, int64(4)).Return(int64(0), nil)
	m.accounts.EXPECT().ListChildren(gomock.Any(), m.tx, int64(4)).Return(nil, nil)
	m.accounts.EXPECT().Delete(gomock.Any(), m.tx, int64(4)).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(errors.New("connection reset"))

	_, err := uc.DeleteAccount(context.Background(), 4)
	assert.EqualError(t, err, "connection reset")
}

func TestAccountUseCase_UpdateAccount_NumberTaken(t *testing.T) {
	m, uc := newAccountMocks(t)

	m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, int64(2)).Return(&domain.Account{ID: 2, AccountNumber: "1010"}, nil)
	m.accounts.EXPECT().GetByNumber(gomock.Any(), "1020").Return(&domain.Account{ID: 5, AccountNumber: "1020"}, nil)

	number := "1020"
	_, err := uc.UpdateAccount(context.Background(), 2, usecase.UpdateAccountInput{AccountNumber: &number})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccountNumber)
}

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name          string
		debit, credit string
		repoErr       error
		want          bool
		wantErr       error
	}{
		{name: "balanced ledger", debit: "100", credit: "100.00", want: true},
		{name: "unbalanced ledger", debit: "100", credit: "99", wantErr: domain.ErrInconsistentLedger},
		{name: "repo error surfaces", debit: "0", credit: "0", repoErr: errors.New("db down"), wantErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedgerRepository(ctrl)
			ledger.EXPECT().LedgerTotals(gomock.Any()).Return(d(tt.debit), d(tt.credit), tt.repoErr)

			uc := usecase.NewLedgerUseCase(mocks.NewMockAccountRepository(ctrl), ledger)
			got, err := uc.CheckConsistency(context.Background())

			if tt.wantErr != nil {
				if err == nil || !(errors.Is(err, tt.wantErr) || err.Error() == tt.wantErr.Error()) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("CheckConsistency() = %v, want %v", got, tt.want)
			}
		})
	}
}

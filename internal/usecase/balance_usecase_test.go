package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
	"github.com/iho/goledger/internal/usecase"
	"github.com/iho/goledger/internal/usecase/mocks"
)

func TestBalanceUseCase_GetAccountBalance(t *testing.T) {
	stored := domain.NewAccountBalance(7, d("150"), d("40"))

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockAccountRepository, *mocks.MockLedgerRepository, *mocks.MockBalanceCache)
		want       string
		wantErr    error
		cacheLabel string
	}{
		{
			name: "cache hit skips the database",
			setupMocks: func(_ *mocks.MockAccountRepository, _ *mocks.MockLedgerRepository, cache *mocks.MockBalanceCache) {
				cached := stored
				cache.EXPECT().Get(gomock.Any(), int64(7)).Return(&cached, nil)
			},
			want:       "110",
			cacheLabel: metrics.CacheHit,
		},
		{
			name: "cache miss reads through",
			setupMocks: func(accRepo *mocks.MockAccountRepository, ledger *mocks.MockLedgerRepository, cache *mocks.MockBalanceCache) {
				cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, nil)
				cache.EXPECT().Version(gomock.Any(), int64(7)).Return(int64(3), nil)
				accRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&domain.Account{ID: 7}, nil)
				ledger.EXPECT().PostedTotalsForAccount(gomock.Any(), int64(7)).Return(stored, nil)
				cache.EXPECT().Set(gomock.Any(), stored, int64(3), 2*time.Minute).Return(true, nil)
			},
			want:       "110",
			cacheLabel: metrics.CacheMiss,
		},
		{
			name: "version read before the totals guards the write",
			setupMocks: func(accRepo *mocks.MockAccountRepository, ledger *mocks.MockLedgerRepository, cache *mocks.MockBalanceCache) {
				gomock.InOrder(
					cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, nil),
					cache.EXPECT().Version(gomock.Any(), int64(7)).Return(int64(4), nil),
					accRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&domain.Account{ID: 7}, nil),
					ledger.EXPECT().PostedTotalsForAccount(gomock.Any(), int64(7)).Return(stored, nil),
					cache.EXPECT().Set(gomock.Any(), stored, int64(4), 2*time.Minute).Return(false, nil),
				)
			},
			want:       "110",
			cacheLabel: metrics.CacheMiss,
		},
		{
			name: "unreadable version skips the cache write",
			setupMocks: func(accRepo *mocks.MockAccountRepository, ledger *mocks.MockLedgerRepository, cache *mocks.MockBalanceCache) {
				cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, nil)
				cache.EXPECT().Version(gomock.Any(), int64(7)).Return(int64(0), errors.New("connection reset"))
				accRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&domain.Account{ID: 7}, nil)
				ledger.EXPECT().PostedTotalsForAccount(gomock.Any(), int64(7)).Return(stored, nil)
			},
			want:       "110",
			cacheLabel: metrics.CacheMiss,
		},
		{
			name: "cache errors degrade to the database",
			setupMocks: func(accRepo *mocks.MockAccountRepository, ledger *mocks.MockLedgerRepository, cache *mocks.MockBalanceCache) {
				cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, errors.New("connection refused"))
				cache.EXPECT().Version(gomock.Any(), int64(7)).Return(int64(0), nil)
				accRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&domain.Account{ID: 7}, nil)
				ledger.EXPECT().PostedTotalsForAccount(gomock.Any(), int64(7)).Return(stored, nil)
				cache.EXPECT().Set(gomock.Any(), stored, int64(0), 2*time.Minute).Return(false, errors.New("connection refused"))
			},
			want:       "110",
			cacheLabel: metrics.CacheError,
		},
		{
			name: "unknown account",
			setupMocks: func(accRepo *mocks.MockAccountRepository, _ *mocks.MockLedgerRepository, cache *mocks.MockBalanceCache) {
				cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, nil)
				cache.EXPECT().Version(gomock.Any(), int64(7)).Return(int64(0), nil)
				accRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(nil, domain.ErrAccountNotFound)
			},
			wantErr:    domain.ErrAccountNotFound,
			cacheLabel: metrics.CacheMiss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accRepo := mocks.NewMockAccountRepository(ctrl)
			ledger := mocks.NewMockLedgerRepository(ctrl)
			cache := mocks.NewMockBalanceCache(ctrl)
			m := metrics.NewWithRegistry(prometheus.NewRegistry())

			tt.setupMocks(accRepo, ledger, cache)

			uc := usecase.NewBalanceUseCase(accRepo, ledger, cache, 2*time.Minute, m)
			got, err := uc.GetAccountBalance(context.Background(), 7)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Balance.String() != tt.want {
					t.Errorf("balance = %s, want %s", got.Balance, tt.want)
				}
			}

			if n := testutil.ToFloat64(m.BalanceCacheLookups.WithLabelValues(tt.cacheLabel)); n != 1 {
				t.Errorf("expected one %s lookup, got %v", tt.cacheLabel, n)
			}
		})
	}
}

func TestBalanceUseCase_WithoutCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	accRepo := mocks.NewMockAccountRepository(ctrl)
	ledger := mocks.NewMockLedgerRepository(ctrl)

	accRepo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&domain.Account{ID: 1}, nil)
	ledger.EXPECT().PostedTotalsForAccount(gomock.Any(), int64(1)).Return(domain.NewAccountBalance(1, d("0"), d("5")), nil)

	uc := usecase.NewBalanceUseCase(accRepo, ledger, nil, 0, nil)
	got, err := uc.GetAccountBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Balance.String() != "-5" {
		t.Errorf("balance = %s, want -5", got.Balance)
	}
}

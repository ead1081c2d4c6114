package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
)

// BalanceUseCase computes posted account balances, optionally through a
// read-through cache.
type BalanceUseCase struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	cache       BalanceCache
	metrics     *metrics.Metrics
	ttl         time.Duration
}

// NewBalanceUseCase creates a new BalanceUseCase. cache and metrics may be nil.
func NewBalanceUseCase(
	accountRepo AccountRepository,
	ledgerRepo LedgerRepository,
	cache BalanceCache,
	ttl time.Duration,
	metrics *metrics.Metrics,
) *BalanceUseCase {
	if ttl <= 0 {
		ttl = DefaultBalanceCacheTTL
	}
	return &BalanceUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		cache:       cache,
		metrics:     metrics,
		ttl:         ttl,
	}
}

// GetAccountBalance returns debit total, credit total and debit-minus-credit
// balance over the account's posted lines. Draft entries never count.
func (uc *BalanceUseCase) GetAccountBalance(ctx context.Context, accountID int64) (domain.AccountBalance, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, accountID)
		switch {
		case err != nil:
			uc.observeCache(metrics.CacheError)
			zerolog.Ctx(ctx).Warn().Err(err).Int64("account_id", accountID).Msg("balance cache read failed")
		case cached != nil:
			uc.observeCache(metrics.CacheHit)
			return *cached, nil
		default:
			uc.observeCache(metrics.CacheMiss)
		}
	}

	// The counter is read before the totals so that a posting committed in
	// between makes the write below a no-op.
	version, cacheable := int64(0), false
	if uc.cache != nil {
		v, err := uc.cache.Version(ctx, accountID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int64("account_id", accountID).Msg("balance cache version read failed")
		} else {
			version, cacheable = v, true
		}
	}

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return domain.AccountBalance{}, err
	}

	balance, err := uc.ledgerRepo.PostedTotalsForAccount(ctx, accountID)
	if err != nil {
		return domain.AccountBalance{}, err
	}

	if cacheable {
		stored, err := uc.cache.Set(ctx, balance, version, uc.ttl)
		switch {
		case err != nil:
			zerolog.Ctx(ctx).Warn().Err(err).Int64("account_id", accountID).Msg("balance cache write failed")
		case !stored:
			zerolog.Ctx(ctx).Debug().Int64("account_id", accountID).Msg("balance changed while loading, not cached")
		}
	}

	return balance, nil
}

func (uc *BalanceUseCase) observeCache(result string) {
	if uc.metrics != nil {
		uc.metrics.BalanceCacheLookups.WithLabelValues(result).Inc()
	}
}

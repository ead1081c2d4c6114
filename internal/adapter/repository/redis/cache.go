package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/goledger/internal/domain"
)

// setIfVersion writes KEYS[1] only while the version counter in KEYS[2]
// still equals ARGV[1]. A missing counter reads as 0.
var setIfVersion = redis.NewScript(`
local v = redis.call('GET', KEYS[2])
if (v or '0') ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// BalanceCache implements usecase.BalanceCache using Redis.
//
// Every account has a version counter next to its cached balance. Invalidate
// bumps the counter, and Set only stores a balance computed under the
// current counter, so a reader that loaded totals before a posting cannot
// overwrite the eviction that posting caused.
type BalanceCache struct {
	client redis.Cmdable
	prefix string
}

// NewBalanceCache creates a new BalanceCache.
func NewBalanceCache(client redis.Cmdable) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
	}
}

type cachedBalance struct {
	AccountID   int64           `json:"account_id"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

func (c *BalanceCache) key(accountID int64) string {
	return c.prefix + strconv.FormatInt(accountID, 10)
}

func (c *BalanceCache) versionKey(accountID int64) string {
	return c.prefix + "ver:" + strconv.FormatInt(accountID, 10)
}

// Get returns the cached balance, or nil on a miss.
func (c *BalanceCache) Get(ctx context.Context, accountID int64) (*domain.AccountBalance, error) {
	raw, err := c.client.Get(ctx, c.key(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached cachedBalance
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}

	balance := domain.NewAccountBalance(cached.AccountID, cached.DebitTotal, cached.CreditTotal)
	return &balance, nil
}

// Version returns the account's invalidation counter.
func (c *BalanceCache) Version(ctx context.Context, accountID int64) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(accountID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores a balance with TTL if the account's counter still equals
// version. It reports whether the balance was stored.
func (c *BalanceCache) Set(ctx context.Context, balance domain.AccountBalance, version int64, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(cachedBalance{
		AccountID:   balance.AccountID,
		DebitTotal:  balance.DebitTotal,
		CreditTotal: balance.CreditTotal,
	})
	if err != nil {
		return false, err
	}

	keys := []string{c.key(balance.AccountID), c.versionKey(balance.AccountID)}
	stored, err := setIfVersion.Run(ctx, c.client, keys, version, raw, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate removes the cached balances of the given accounts and bumps
// their counters so that in-flight reads do not repopulate them.
func (c *BalanceCache) Invalidate(ctx context.Context, accountIDs ...int64) error {
	if len(accountIDs) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range accountIDs {
			pipe.Incr(ctx, c.versionKey(id))
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	return err
}

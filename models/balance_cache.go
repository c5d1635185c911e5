package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/talentwire/points-service/utils"
)

const BALANCE_CACHE_VERSION = "1"

// BalanceCache holds short-lived tenant balances for the advisory check
// path. It is never authoritative: the true balance is only observable under
// the row lock.
type BalanceCache struct {
	CacheStore Cacher
	TTL        time.Duration
}

func NewBalanceCache(cacheStore Cacher, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		CacheStore: cacheStore,
		TTL:        ttl,
	}
}

func (cache *BalanceCache) key(tenantID string) string {
	return strings.Join([]string{"point-balance", BALANCE_CACHE_VERSION, tenantID}, "/")
}

func (cache *BalanceCache) Get(tenantID string) utils.Result[int64] {
	valueResult := cache.CacheStore.GetKey(cache.key(tenantID))
	if valueResult.Failure() {
		result := utils.FailedResult[int64](valueResult.Error())
		result.Retryable = valueResult.IsRetryable()
		result.Capture = valueResult.IsCapturable()
		return result
	}

	balance, err := strconv.ParseInt(valueResult.Value(), 10, 64)
	if err != nil {
		return utils.FailedResult[int64](err).NonRetryable()
	}

	return utils.SuccessResult(balance)
}

func (cache *BalanceCache) Set(tenantID string, balance int64) utils.Result[bool] {
	return cache.CacheStore.SetKey(cache.key(tenantID), strconv.FormatInt(balance, 10), cache.TTL)
}

// Invalidate drops the cached balance after any committed ledger mutation.
func (cache *BalanceCache) Invalidate(tenantID string) utils.Result[bool] {
	return cache.CacheStore.DeleteKey(cache.key(tenantID))
}

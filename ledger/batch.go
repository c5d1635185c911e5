package ledger

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/talentwire/points-service/utils"
)

const batchConcurrency = 8

type BatchOutcome struct {
	Tenants int
	Expired int64
	Failed  int
}

// ExpireAll runs the per-tenant expiration path for every active tenant.
// Intended for periodic scheduled invocation. Failures are logged, captured
// and skipped so one bad tenant never blocks the others.
func (l *Ledger) ExpireAll(ctx context.Context) utils.Result[*BatchOutcome] {
	tenantsResult := l.store.ActiveTenantIDs()
	if tenantsResult.Failure() {
		return forwardFailure[*BatchOutcome](tenantsResult)
	}
	tenantIDs := tenantsResult.Value()

	outcome := &BatchOutcome{Tenants: len(tenantIDs)}
	var mu sync.Mutex

	group := new(errgroup.Group)
	group.SetLimit(batchConcurrency)

	for _, tenantID := range tenantIDs {
		group.Go(func() error {
			result := l.ExpireTenant(ctx, tenantID)
			if result.Failure() {
				l.logger.Error("tenant expiration failed",
					slog.String("tenant_id", tenantID),
					slog.String("error", result.ErrorMsg()),
				)
				if result.IsCapturable() {
					utils.CaptureErrorResultWithExtra(result, "tenant_id", tenantID)
				}

				mu.Lock()
				outcome.Failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			outcome.Expired += result.Value()
			mu.Unlock()
			return nil
		})
	}

	group.Wait()

	return utils.SuccessResult(outcome)
}

// AuditTenant verifies the conservation law: the sum over all ledger rows of
// a tenant equals its current balance.
func (l *Ledger) AuditTenant(ctx context.Context, tenantID string) utils.Result[bool] {
	subResult := l.store.FetchSubscription(tenantID)
	if subResult.Failure() {
		return forwardFailure[bool](subResult)
	}

	sumResult := l.store.SumTransactionAmounts(tenantID)
	if sumResult.Failure() {
		return forwardFailure[bool](sumResult)
	}

	return utils.SuccessResult(subResult.Value().PointBalance == sumResult.Value())
}

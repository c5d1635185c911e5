package ledger

import (
	"context"
	"log/slog"

	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

type BalanceCheck struct {
	CanProceed bool
	Required   int64
	Available  int64
}

// CheckBalance is the advisory precheck for UX purposes. It reads without
// locking and may serve a short-lived cached balance; the authoritative
// check always happens again inside Consume's lock.
func (l *Ledger) CheckBalance(ctx context.Context, tenantID string, action models.BillableAction) utils.Result[*BalanceCheck] {
	cost, ok := l.costs.Cost(action)
	if !ok {
		return failed[*BalanceCheck](models.ErrUnknownAction)
	}

	if l.balanceCache != nil {
		if cached := l.balanceCache.Get(tenantID); cached.Success() {
			return utils.SuccessResult(&BalanceCheck{
				CanProceed: cached.Value() >= cost,
				Required:   cost,
				Available:  cached.Value(),
			})
		}
	}

	subResult := l.store.FetchSubscription(tenantID)
	if subResult.Failure() {
		return forwardFailure[*BalanceCheck](subResult)
	}
	sub := subResult.Value()

	if sub.Status != models.SubscriptionActive {
		return utils.SuccessResult(&BalanceCheck{
			CanProceed: false,
			Required:   cost,
			Available:  sub.PointBalance,
		})
	}

	if l.balanceCache != nil {
		if result := l.balanceCache.Set(tenantID, sub.PointBalance); result.Failure() {
			l.logger.Warn("failed to cache balance",
				slog.String("tenant_id", tenantID),
				slog.String("error", result.ErrorMsg()),
			)
		}
	}

	return utils.SuccessResult(&BalanceCheck{
		CanProceed: sub.PointBalance >= cost,
		Required:   cost,
		Available:  sub.PointBalance,
	})
}

package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

const expireDescription = "points expired"

// expireLocked retires grants and purchases past their expiry. It runs as
// the first step of every lock-holding transaction so callers always observe
// a post-expiration balance.
//
// The deduction is capped at the current balance: spending may already have
// consumed part of an expiring grant. Scanned rows are flagged expired in
// full even when the deduction was capped.
func expireLocked(tx *gorm.DB, sub *models.Subscription) (int64, *models.PointTransaction, error) {
	rows, err := models.ExpirableGrants(tx, sub.TenantID, time.Now().UTC())
	if err != nil {
		return 0, nil, err
	}
	if len(rows) == 0 {
		return 0, nil, nil
	}

	var totalExpired int64
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		totalExpired += row.Amount
		ids = append(ids, row.ID)
	}

	expireAmount := min(totalExpired, sub.PointBalance)

	var txn *models.PointTransaction
	if expireAmount > 0 {
		txn = &models.PointTransaction{
			TransactionType: models.TransactionExpire,
			Description:     expireDescription,
		}
		if _, err := models.ApplyDelta(tx, sub, -expireAmount, txn); err != nil {
			return 0, nil, err
		}
	}

	if err := models.MarkExpired(tx, ids); err != nil {
		return 0, nil, err
	}

	return expireAmount, txn, nil
}

// ExpireTenant runs expiration for a single tenant in its own transaction.
func (l *Ledger) ExpireTenant(ctx context.Context, tenantID string) utils.Result[int64] {
	var expired int64
	var recorded []*models.PointTransaction

	err := l.store.Conn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := models.LockSubscription(tx, tenantID)
		if err != nil {
			return err
		}

		amount, txn, err := expireLocked(tx, sub)
		if err != nil {
			return err
		}

		expired = amount
		if txn != nil {
			recorded = append(recorded, txn)
		}
		return nil
	})
	if err != nil {
		return failed[int64](err)
	}

	if expired > 0 {
		l.afterCommit(ctx, tenantID, recorded)
	}

	return utils.SuccessResult(expired)
}

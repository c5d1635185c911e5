package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

// Granted points stay spendable for three months.
const GrantExpiryMonths = 3

const carryoverDescription = "carryover cap exceeded"

type GrantParams struct {
	TenantID    string
	Amount      int64
	Type        models.TransactionType
	Description string
}

type GrantOutcome struct {
	NewBalance int64
	// Expired is the carryover excess force-expired before the credit.
	Expired int64
}

// Grant credits points to the tenant. Periodic grants enforce the carryover
// cap first: a balance above half the plan allotment is force-expired down
// to the cap before the new credit lands. Purchases never trigger the cap.
func (l *Ledger) Grant(ctx context.Context, params GrantParams) utils.Result[*GrantOutcome] {
	if params.Amount <= 0 {
		return utils.BusinessFailure[*GrantOutcome](
			fmt.Errorf("grant amount must be positive, got %d", params.Amount),
			"invalid_grant", "Grant amount must be positive")
	}
	if params.Type != models.TransactionGrant && params.Type != models.TransactionPurchase {
		return utils.BusinessFailure[*GrantOutcome](
			fmt.Errorf("invalid grant type %q", params.Type),
			"invalid_grant", "Grant type must be grant or purchase")
	}

	outcome := &GrantOutcome{}
	var recorded []*models.PointTransaction

	err := l.store.Conn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := models.LockSubscription(tx, params.TenantID)
		if err != nil {
			return err
		}

		_, expireTxn, err := expireLocked(tx, sub)
		if err != nil {
			return err
		}
		if expireTxn != nil {
			recorded = append(recorded, expireTxn)
		}

		if params.Type == models.TransactionGrant {
			carryoverCap := sub.PointsIncluded / 2
			if sub.PointBalance > carryoverCap {
				excess := sub.PointBalance - carryoverCap
				txn := &models.PointTransaction{
					TransactionType: models.TransactionExpire,
					Description:     carryoverDescription,
				}
				if _, err := models.ApplyDelta(tx, sub, -excess, txn); err != nil {
					return err
				}
				recorded = append(recorded, txn)
				outcome.Expired = excess
			}
		}

		now := time.Now().UTC()
		txn := &models.PointTransaction{
			TransactionType: params.Type,
			Description:     params.Description,
			ExpiresAt:       sql.NullTime{Time: now.AddDate(0, GrantExpiryMonths, 0), Valid: true},
		}
		if _, err := models.ApplyDelta(tx, sub, params.Amount, txn); err != nil {
			return err
		}
		recorded = append(recorded, txn)

		outcome.NewBalance = sub.PointBalance
		return nil
	})
	if err != nil {
		return failed[*GrantOutcome](err)
	}

	l.afterCommit(ctx, params.TenantID, recorded)

	return utils.SuccessResult(outcome)
}

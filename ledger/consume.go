package ledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

// SideEffects runs inside the consume transaction, after the deduction. Any
// error aborts the whole transaction: the deduction and the side effect are
// all-or-nothing. Side effects hold the tenant row lock, so they must stay
// fast and never perform outbound network calls.
type SideEffects func(tx *gorm.DB) (any, error)

type ConsumeParams struct {
	TenantID    string
	Action      models.BillableAction
	RelatedID   *string
	Description string
	SideEffects SideEffects
}

type ConsumeOutcome struct {
	NewBalance int64
	Consumed   int64
	Result     any
}

// Consume deducts the action's cost from the tenant balance. One
// transaction: lock the tenant row, run expiration, validate the balance,
// apply the deduction and run the caller's side effects.
func (l *Ledger) Consume(ctx context.Context, params ConsumeParams) utils.Result[*ConsumeOutcome] {
	cost, ok := l.costs.Cost(params.Action)
	if !ok {
		return failed[*ConsumeOutcome](models.ErrUnknownAction)
	}
	if cost == 0 {
		return l.consumeFree(ctx, params)
	}

	outcome := &ConsumeOutcome{Consumed: cost}
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

		if cost > sub.PointBalance {
			return models.InsufficientPointsError{Required: cost, Available: sub.PointBalance}
		}

		action := params.Action
		txn := &models.PointTransaction{
			TransactionType: models.TransactionConsume,
			Action:          &action,
			RelatedID:       params.RelatedID,
			Description:     params.Description,
		}
		if _, err := models.ApplyDelta(tx, sub, -cost, txn); err != nil {
			return err
		}
		recorded = append(recorded, txn)

		if params.SideEffects != nil {
			result, err := params.SideEffects(tx)
			if err != nil {
				return err
			}
			outcome.Result = result
		}

		outcome.NewBalance = sub.PointBalance
		return nil
	})
	if err != nil {
		return failed[*ConsumeOutcome](err)
	}

	l.afterCommit(ctx, params.TenantID, recorded)

	return utils.SuccessResult(outcome)
}

// consumeFree handles zero-cost actions: no lock, no deduction, no ledger
// row. Side effects still run inside a transaction so any entity mutation
// they perform stays atomic.
func (l *Ledger) consumeFree(ctx context.Context, params ConsumeParams) utils.Result[*ConsumeOutcome] {
	return l.RunFree(ctx, params.TenantID, params.SideEffects)
}

// RunFree runs unbilled side effects for a tenant. The subscription still has
// to exist and be active, checked with an unlocked read.
func (l *Ledger) RunFree(ctx context.Context, tenantID string, sideEffects SideEffects) utils.Result[*ConsumeOutcome] {
	subResult := l.store.FetchSubscription(tenantID)
	if subResult.Failure() {
		return forwardFailure[*ConsumeOutcome](subResult)
	}
	sub := subResult.Value()
	if sub.Status != models.SubscriptionActive {
		return failed[*ConsumeOutcome](models.SubscriptionInactiveError{Status: sub.Status})
	}

	outcome := &ConsumeOutcome{NewBalance: sub.PointBalance}

	if sideEffects != nil {
		err := l.store.Conn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result, err := sideEffects(tx)
			if err != nil {
				return err
			}
			outcome.Result = result
			return nil
		})
		if err != nil {
			return failed[*ConsumeOutcome](err)
		}
	}

	return utils.SuccessResult(outcome)
}

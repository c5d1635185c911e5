package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentwire/points-service/utils"
)

type TransactionType string

const (
	TransactionGrant    TransactionType = "grant"
	TransactionPurchase TransactionType = "purchase"
	TransactionConsume  TransactionType = "consume"
	TransactionExpire   TransactionType = "expire"
)

// PointTransaction is the append-only ledger log. Rows are created and never
// mutated, except for the expired flag which is flipped exactly once when a
// grant or purchase is retired.
type PointTransaction struct {
	ID              string `gorm:"primaryKey"`
	TenantID        string
	TransactionType TransactionType
	Action          *BillableAction
	Amount          int64
	BalanceAfter    int64
	RelatedID       *string
	Description     string
	ExpiresAt       sql.NullTime
	Expired         bool
	CreatedAt       time.Time
}

// ApplyDelta updates the locked subscription balance and appends the ledger
// row in one statement group. The caller must hold the tenant row lock; this
// is not checked at runtime.
func ApplyDelta(tx *gorm.DB, sub *Subscription, delta int64, txn *PointTransaction) (int64, error) {
	newBalance := sub.PointBalance + delta

	err := tx.Model(&Subscription{}).
		Where("tenant_id = ?", sub.TenantID).
		Update("point_balance", newBalance).Error
	if err != nil {
		return 0, err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	txn.TenantID = sub.TenantID
	txn.Amount = delta
	txn.BalanceAfter = newBalance

	if err := tx.Create(txn).Error; err != nil {
		return 0, err
	}

	sub.PointBalance = newBalance
	return newBalance, nil
}

// ExpirableGrants returns the unexpired grant and purchase rows past their
// expiry, under the lock held by the caller.
func ExpirableGrants(tx *gorm.DB, tenantID string, now time.Time) ([]PointTransaction, error) {
	var rows []PointTransaction

	err := tx.
		Where("tenant_id = ?", tenantID).
		Where("transaction_type IN ?", []TransactionType{TransactionGrant, TransactionPurchase}).
		Where("expired = ?", false).
		Where("expires_at < ?", now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func MarkExpired(tx *gorm.DB, ids []string) error {
	return tx.Model(&PointTransaction{}).
		Where("id IN ?", ids).
		Update("expired", true).Error
}

// SumTransactionAmounts is the conservation check: the sum over all ledger
// rows of a tenant always equals its current balance.
func (store *Store) SumTransactionAmounts(tenantID string) utils.Result[int64] {
	var total int64

	err := store.db.Connection.
		Model(&PointTransaction{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return utils.FailedResult[int64](err)
	}

	return utils.SuccessResult(total)
}

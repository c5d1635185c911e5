package models

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const updateBalanceQuery = `UPDATE "subscriptions" SET `
const insertTransactionQuery = `INSERT INTO "point_transactions"`
const expirableGrantsQuery = `SELECT .* FROM "point_transactions" WHERE tenant_id = .*transaction_type IN .*expired = .*expires_at < `

func TestApplyDelta(t *testing.T) {
	t.Run("should update the balance and append the ledger row", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		sub := &Subscription{TenantID: "tenant1", PointBalance: 10, Status: SubscriptionActive}

		mock.ExpectBegin()
		mock.ExpectExec(updateBalanceQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		txn := &PointTransaction{TransactionType: TransactionConsume}
		var newBalance int64
		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			var err error
			newBalance, err = ApplyDelta(tx, sub, -3, txn)
			return err
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), newBalance)
		assert.Equal(t, int64(7), sub.PointBalance)
		assert.Equal(t, int64(7), txn.BalanceAfter)
		assert.Equal(t, int64(-3), txn.Amount)
		assert.Equal(t, "tenant1", txn.TenantID)
		assert.NotEmpty(t, txn.ID)
	})

	t.Run("should leave the in-memory balance untouched on error", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		sub := &Subscription{TenantID: "tenant1", PointBalance: 10}

		mock.ExpectBegin()
		mock.ExpectExec(updateBalanceQuery).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			_, err := ApplyDelta(tx, sub, -3, &PointTransaction{})
			return err
		})

		assert.Error(t, err)
		assert.Equal(t, int64(10), sub.PointBalance)
	})
}

func TestExpirableGrants(t *testing.T) {
	t.Run("should return unexpired rows past their expiry", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "transaction_type", "amount", "expired"}).
			AddRow("txn1", "tenant1", string(TransactionGrant), 50, false).
			AddRow("txn2", "tenant1", string(TransactionPurchase), 20, false)

		mock.ExpectQuery(expirableGrantsQuery).
			WillReturnRows(rows)

		result, err := ExpirableGrants(store.Conn(), "tenant1", now)

		assert.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Equal(t, int64(50), result[0].Amount)
	})
}

func TestMarkExpired(t *testing.T) {
	t.Run("should flip the expired flag on the given rows", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "point_transactions" SET "expired"=.* WHERE id IN `).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err := store.Conn().Transaction(func(tx *gorm.DB) error {
			return MarkExpired(tx, []string{"txn1", "txn2"})
		})

		assert.NoError(t, err)
	})
}

func TestSumTransactionAmounts(t *testing.T) {
	t.Run("should return the ledger sum", func(t *testing.T) {
		store, mock, cleanup := setupStore(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "point_transactions" WHERE tenant_id = `).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(35))

		result := store.SumTransactionAmounts("tenant1")

		assert.True(t, result.Success())
		assert.Equal(t, int64(35), result.Value())
	})
}

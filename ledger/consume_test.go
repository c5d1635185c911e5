package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/talentwire/points-service/models"
)

func TestConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("should deduct the cost and invalidate the cache", func(t *testing.T) {
		l, mock, cacheStore, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 10, 100))
		mock.ExpectQuery(expirableGrantsQuery).
			WillReturnRows(noExpirableGrants())
		mock.ExpectExec(updateBalanceQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.ActionMessageSend,
		})

		assert.True(t, result.Success())
		assert.Equal(t, int64(7), result.Value().NewBalance)
		assert.Equal(t, int64(3), result.Value().Consumed)
		assert.Equal(t, 1, cacheStore.DeleteCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should reject when the balance is insufficient", func(t *testing.T) {
		l, mock, cacheStore, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 2, 100))
		mock.ExpectQuery(expirableGrantsQuery).
			WillReturnRows(noExpirableGrants())
		mock.ExpectRollback()

		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.ActionMessageSend,
		})

		assert.True(t, result.Failure())
		assert.Equal(t, "insufficient_points", result.ErrorCode())
		assert.False(t, result.IsRetryable())
		assert.False(t, result.IsCapturable())
		assert.Equal(t, 0, cacheStore.DeleteCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should roll back the deduction when a side effect fails", func(t *testing.T) {
		l, mock, cacheStore, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 10, 100))
		mock.ExpectQuery(expirableGrantsQuery).
			WillReturnRows(noExpirableGrants())
		mock.ExpectExec(updateBalanceQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		sideEffectErr := errors.New("entity insert failed")
		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.ActionMessageSend,
			SideEffects: func(tx *gorm.DB) (any, error) {
				return nil, sideEffectErr
			},
		})

		assert.True(t, result.Failure())
		assert.Equal(t, sideEffectErr, result.Error())
		assert.Equal(t, 0, cacheStore.DeleteCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should surface a duplicate session from a side effect", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 10, 100))
		mock.ExpectQuery(expirableGrantsQuery).
			WillReturnRows(noExpirableGrants())
		mock.ExpectExec(updateBalanceQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertTransactionQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.ActionAIConversation,
			SideEffects: func(tx *gorm.DB) (any, error) {
				return nil, models.DuplicateSessionError{SessionID: "sess1"}
			},
		})

		assert.True(t, result.Failure())
		assert.Equal(t, "duplicate_session", result.ErrorCode())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should fail on an unknown action without touching the database", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.BillableAction("teleportation"),
		})

		assert.True(t, result.Failure())
		assert.Equal(t, "unknown_action", result.ErrorCode())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConsumeFree(t *testing.T) {
	ctx := context.Background()

	t.Run("should bypass the lock for zero-cost actions", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 10, 100))

		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.ActionProfileView,
		})

		assert.True(t, result.Success())
		assert.Equal(t, int64(10), result.Value().NewBalance)
		assert.Equal(t, int64(0), result.Value().Consumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should still require an active subscription", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnRows(inactiveSubscriptionRow("tenant1", models.SubscriptionCanceled))

		result := l.Consume(ctx, ConsumeParams{
			TenantID: "tenant1",
			Action:   models.ActionProfileView,
		})

		assert.True(t, result.Failure())
		assert.Equal(t, "subscription_inactive", result.ErrorCode())
	})

	t.Run("should run side effects inside a transaction", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 10, 100))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "interests" SET `).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		result := l.RunFree(ctx, "tenant1", func(tx *gorm.DB) (any, error) {
			return nil, models.GuardTransition(tx, "interests", "int1",
				[]string{string(models.InterestInterested)}, string(models.InterestApproved), nil)
		})

		assert.True(t, result.Success())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should surface a lost race as conflict", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 10, 100))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "interests" SET `).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		result := l.RunFree(ctx, "tenant1", func(tx *gorm.DB) (any, error) {
			return nil, models.GuardTransition(tx, "interests", "int1",
				[]string{string(models.InterestInterested)}, string(models.InterestApproved), nil)
		})

		assert.True(t, result.Failure())
		assert.Equal(t, "conflict", result.ErrorCode())
	})
}

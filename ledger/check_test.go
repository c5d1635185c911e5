package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentwire/points-service/models"
)

func TestCheckBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("should serve a cached balance without hitting the database", func(t *testing.T) {
		l, mock, cacheStore, cleanup := setupLedger(t)
		defer cleanup()

		cacheStore.Values["point-balance/1/tenant1"] = "5"

		result := l.CheckBalance(ctx, "tenant1", models.ActionContactDisclosure)

		assert.True(t, result.Success())
		assert.False(t, result.Value().CanProceed)
		assert.Equal(t, int64(10), result.Value().Required)
		assert.Equal(t, int64(5), result.Value().Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should read and cache the balance on a miss", func(t *testing.T) {
		l, mock, cacheStore, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnRows(subscriptionRow("tenant1", 20, 100))

		result := l.CheckBalance(ctx, "tenant1", models.ActionContactDisclosure)

		assert.True(t, result.Success())
		assert.True(t, result.Value().CanProceed)
		assert.Equal(t, int64(20), result.Value().Available)
		assert.Equal(t, 1, cacheStore.SetCount)
		assert.Equal(t, "20", cacheStore.Values["point-balance/1/tenant1"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should not cache balances of inactive subscriptions", func(t *testing.T) {
		l, mock, cacheStore, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnRows(inactiveSubscriptionRow("tenant1", models.SubscriptionPastDue))

		result := l.CheckBalance(ctx, "tenant1", models.ActionMessageSend)

		assert.True(t, result.Success())
		assert.False(t, result.Value().CanProceed)
		assert.Equal(t, 0, cacheStore.SetCount)
	})

	t.Run("should forward a missing subscription", func(t *testing.T) {
		l, mock, _, cleanup := setupLedger(t)
		defer cleanup()

		mock.ExpectQuery(fetchSubscriptionQuery).
			WillReturnError(assert.AnError)

		result := l.CheckBalance(ctx, "tenant1", models.ActionMessageSend)

		assert.True(t, result.Failure())
	})

	t.Run("should reject unknown actions", func(t *testing.T) {
		l, _, _, cleanup := setupLedger(t)
		defer cleanup()

		result := l.CheckBalance(ctx, "tenant1", models.BillableAction("teleportation"))

		assert.True(t, result.Failure())
		assert.Equal(t, "unknown_action", result.ErrorCode())
	})
}

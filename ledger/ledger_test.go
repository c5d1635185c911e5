package ledger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/tests"
)

const lockSubscriptionQuery = `SELECT .* FROM "subscriptions" WHERE tenant_id = .*FOR UPDATE`
const fetchSubscriptionQuery = `SELECT .* FROM "subscriptions" WHERE tenant_id = .*LIMIT`
const expirableGrantsQuery = `SELECT .* FROM "point_transactions" WHERE tenant_id = .*transaction_type IN .*expired = .*expires_at < `
const updateBalanceQuery = `UPDATE "subscriptions" SET `
const insertTransactionQuery = `INSERT INTO "point_transactions"`
const markExpiredQuery = `UPDATE "point_transactions" SET "expired"=`

func setupLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock, *tests.MockCacheStore, func()) {
	db, mock, cleanup := tests.SetupMockStore(t)

	cacheStore := tests.NewMockCacheStore()
	balanceCache := models.NewBalanceCache(cacheStore, 30*time.Second)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	l := New(models.NewStore(db), models.DefaultCostTable(), balanceCache, nil, logger)

	return l, mock, cacheStore, cleanup
}

func subscriptionColumns() []string {
	return []string{"id", "tenant_id", "point_balance", "points_included", "status", "plan_type", "created_at", "updated_at"}
}

func subscriptionRow(tenantID string, balance int64, included int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(subscriptionColumns()).
		AddRow("sub123", tenantID, balance, included, string(models.SubscriptionActive), "team", now, now)
}

func inactiveSubscriptionRow(tenantID string, status models.SubscriptionStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(subscriptionColumns()).
		AddRow("sub123", tenantID, 0, 100, string(status), "team", now, now)
}

func noExpirableGrants() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "transaction_type", "amount", "expired"})
}

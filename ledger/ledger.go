package ledger

import (
	"context"
	"log/slog"

	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

// Ledger serializes every balance mutation of a tenant behind its
// subscription row lock. Correctness comes from the transactional store, not
// from process memory: any number of service instances can run concurrently.
type Ledger struct {
	store        *models.Store
	costs        *models.CostTable
	balanceCache *models.BalanceCache
	events       *TransactionProducerService
	logger       *slog.Logger
}

// New builds a ledger. balanceCache and events are optional: without them
// the advisory check always hits the database and no ledger events are
// produced.
func New(store *models.Store, costs *models.CostTable, balanceCache *models.BalanceCache, events *TransactionProducerService, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:        store,
		costs:        costs,
		balanceCache: balanceCache,
		events:       events,
		logger:       logger.With("component", "ledger"),
	}
}

// Store exposes the underlying store for unbilled reads, e.g. re-querying an
// existing session after a duplicate was detected.
func (l *Ledger) Store() *models.Store {
	return l.store
}

// afterCommit runs once a ledger transaction committed: the advisory cache
// entry is dropped and the recorded rows are produced as events.
func (l *Ledger) afterCommit(ctx context.Context, tenantID string, recorded []*models.PointTransaction) {
	if l.balanceCache != nil {
		if result := l.balanceCache.Invalidate(tenantID); result.Failure() {
			l.logger.Error("failed to invalidate balance cache",
				slog.String("tenant_id", tenantID),
				slog.String("error", result.ErrorMsg()),
			)
			utils.CaptureError(result.Error())
		}
	}

	if l.events != nil && len(recorded) > 0 {
		// the request context may be canceled as soon as the handler
		// returns, production must outlive it
		go l.events.ProduceTransactions(context.WithoutCancel(ctx), recorded)
	}
}

func failed[T any](err error) utils.Result[T] {
	if code := models.ErrorCode(err); code != "" {
		return utils.BusinessFailure[T](err, code, businessMessage(code))
	}

	return utils.FailedResult[T](err)
}

func forwardFailure[T any](r utils.AnyResult) utils.Result[T] {
	result := utils.FailedResult[T](r.Error()).AddErrorDetails(r.ErrorCode(), r.ErrorMessage())
	result.Retryable = r.IsRetryable()
	result.Capture = r.IsCapturable()
	return result
}

func businessMessage(code string) string {
	switch code {
	case "no_subscription":
		return "Tenant has no billing record"
	case "subscription_inactive":
		return "Subscription is suspended or canceled"
	case "insufficient_points":
		return "Not enough points for this action"
	case "conflict":
		return "Entity already transitioned"
	case "duplicate_session":
		return "An open session of this kind already exists"
	case "unknown_action":
		return "Unknown billable action"
	}

	return ""
}

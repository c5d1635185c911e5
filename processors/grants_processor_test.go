package processors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/talentwire/points-service/ledger"
	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/tests"
	"github.com/talentwire/points-service/utils"
)

type mockGranter struct {
	mu     sync.Mutex
	calls  []ledger.GrantParams
	result utils.Result[*ledger.GrantOutcome]
}

func (g *mockGranter) Grant(ctx context.Context, params ledger.GrantParams) utils.Result[*ledger.GrantOutcome] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, params)
	return g.result
}

func (g *mockGranter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func setupProcessor(result utils.Result[*ledger.GrantOutcome]) (*GrantsProcessor, *mockGranter, *tests.MockMessageProducer) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	granter := &mockGranter{result: result}
	deadLetter := &tests.MockMessageProducer{}

	return NewGrantsProcessor(logger, granter, deadLetter), granter, deadLetter
}

func commandRecord(t *testing.T, issuedAt time.Time) *kgo.Record {
	t.Helper()

	payload := `{
		"command_id": "cmd1",
		"tenant_id": "tenant1",
		"amount": 100,
		"type": "grant",
		"description": "monthly refill",
		"issued_at": "` + issuedAt.UTC().Format("2006-01-02T15:04:05") + `"
	}`

	return &kgo.Record{Key: []byte("tenant1"), Value: []byte(payload)}
}

func TestProcessCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply the grant and commit the record", func(t *testing.T) {
		processor, granter, deadLetter := setupProcessor(
			utils.SuccessResult(&ledger.GrantOutcome{NewBalance: 120}))

		record := commandRecord(t, time.Now())
		processed := processor.ProcessCommands(ctx, []*kgo.Record{record})

		assert.Len(t, processed, 1)
		assert.Equal(t, 1, granter.callCount())
		assert.Equal(t, "tenant1", granter.calls[0].TenantID)
		assert.Equal(t, int64(100), granter.calls[0].Amount)
		assert.Equal(t, models.TransactionGrant, granter.calls[0].Type)
		assert.Equal(t, 0, deadLetter.ExecutionCount)
	})

	t.Run("should commit unparsable records without granting", func(t *testing.T) {
		processor, granter, _ := setupProcessor(
			utils.SuccessResult(&ledger.GrantOutcome{}))

		record := &kgo.Record{Value: []byte("not json")}
		processed := processor.ProcessCommands(ctx, []*kgo.Record{record})

		assert.Len(t, processed, 1)
		assert.Equal(t, 0, granter.callCount())
	})

	t.Run("should dead-letter business failures and commit", func(t *testing.T) {
		processor, _, deadLetter := setupProcessor(
			utils.BusinessFailure[*ledger.GrantOutcome](
				models.ErrNoSubscription, "no_subscription", "Tenant has no billing record"))

		record := commandRecord(t, time.Now())
		processed := processor.ProcessCommands(ctx, []*kgo.Record{record})

		assert.Len(t, processed, 1)
		assert.Eventually(t, func() bool {
			return deadLetter.ExecutionCount == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("should leave recent retryable failures uncommitted", func(t *testing.T) {
		processor, _, deadLetter := setupProcessor(
			utils.FailedResult[*ledger.GrantOutcome](errors.New("connection refused")).NonCapturable())

		record := commandRecord(t, time.Now())
		processed := processor.ProcessCommands(ctx, []*kgo.Record{record})

		assert.Len(t, processed, 0)
		assert.Equal(t, 0, deadLetter.ExecutionCount)
	})

	t.Run("should dead-letter retryable failures older than the cutoff", func(t *testing.T) {
		processor, _, deadLetter := setupProcessor(
			utils.FailedResult[*ledger.GrantOutcome](errors.New("connection refused")).NonCapturable())

		record := commandRecord(t, time.Now().Add(-13*time.Hour))
		processed := processor.ProcessCommands(ctx, []*kgo.Record{record})

		assert.Len(t, processed, 1)
		assert.Eventually(t, func() bool {
			return deadLetter.ExecutionCount == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("should process a batch of records", func(t *testing.T) {
		processor, granter, _ := setupProcessor(
			utils.SuccessResult(&ledger.GrantOutcome{}))

		records := []*kgo.Record{
			commandRecord(t, time.Now()),
			commandRecord(t, time.Now()),
			commandRecord(t, time.Now()),
		}
		processed := processor.ProcessCommands(ctx, records)

		assert.Len(t, processed, 3)
		assert.Equal(t, 3, granter.callCount())
	})
}

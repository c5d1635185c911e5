package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/talentwire/points-service/config/kafka"
	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

// LedgerEvent is the wire form of a committed ledger row, produced to the
// ledger event stream keyed by tenant so downstream consumers see each
// tenant's mutations in order.
type LedgerEvent struct {
	ID              string  `json:"id"`
	TenantID        string  `json:"tenant_id"`
	TransactionType string  `json:"transaction_type"`
	Action          *string `json:"action,omitempty"`
	Amount          int64   `json:"amount"`
	BalanceAfter    int64   `json:"balance_after"`
	RelatedID       *string `json:"related_id,omitempty"`
	Description     string  `json:"description,omitempty"`
	ExpiresAt       *string `json:"expires_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type TransactionProducerService struct {
	producer kafka.MessageProducer
	logger   *slog.Logger
}

func NewTransactionProducerService(producer kafka.MessageProducer, logger *slog.Logger) *TransactionProducerService {
	return &TransactionProducerService{
		producer: producer,
		logger:   logger.With("component", "transaction_producer"),
	}
}

// ProduceTransactions pushes the rows recorded by a committed transaction.
// Production is best effort: the ledger row is the source of truth and a
// produce failure is logged and captured, never surfaced to the caller.
func (s *TransactionProducerService) ProduceTransactions(ctx context.Context, transactions []*models.PointTransaction) {
	for _, txn := range transactions {
		s.produceTransaction(ctx, txn)
	}
}

func (s *TransactionProducerService) produceTransaction(ctx context.Context, txn *models.PointTransaction) {
	event := LedgerEvent{
		ID:              txn.ID,
		TenantID:        txn.TenantID,
		TransactionType: string(txn.TransactionType),
		Amount:          txn.Amount,
		BalanceAfter:    txn.BalanceAfter,
		RelatedID:       txn.RelatedID,
		Description:     txn.Description,
		CreatedAt:       txn.CreatedAt.UTC().Format(time.RFC3339),
	}
	if txn.Action != nil {
		action := string(*txn.Action)
		event.Action = &action
	}
	if txn.ExpiresAt.Valid {
		expiresAt := txn.ExpiresAt.Time.UTC().Format(time.RFC3339)
		event.ExpiresAt = &expiresAt
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("error marshaling ledger event", slog.String("error", err.Error()))
		utils.CaptureError(err)
		return
	}

	pushed := s.producer.Produce(ctx, &kafka.ProducerMessage{
		Key:   []byte(txn.TenantID),
		Value: payload,
	})
	if !pushed {
		s.logger.Error("error producing ledger event",
			slog.String("transaction_id", txn.ID),
			slog.String("tenant_id", txn.TenantID),
		)
	}
}

package processors

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"

	tracer "github.com/talentwire/points-service/config"
	"github.com/talentwire/points-service/config/kafka"
	"github.com/talentwire/points-service/ledger"
	"github.com/talentwire/points-service/models"
	"github.com/talentwire/points-service/utils"
)

// GrantCommand is the wire form consumed from the grant command topic.
// Billing emits one per plan renewal or point pack purchase.
type GrantCommand struct {
	CommandID   string           `json:"command_id"`
	TenantID    string           `json:"tenant_id"`
	Amount      int64            `json:"amount"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	IssuedAt    utils.CustomTime `json:"issued_at"`
}

// FailedGrantCommand wraps a command pushed to the dead letter queue with the
// error that made it fail.
type FailedGrantCommand struct {
	GrantCommand
	InitialErrorMessage string    `json:"initial_error_message"`
	ErrorCode           string    `json:"error_code"`
	ErrorMessage        string    `json:"error_message"`
	FailedAt            time.Time `json:"failed_at"`
}

type Granter interface {
	Grant(ctx context.Context, params ledger.GrantParams) utils.Result[*ledger.GrantOutcome]
}

type GrantsProcessor struct {
	logger             *slog.Logger
	granter            Granter
	deadLetterProducer kafka.MessageProducer
}

func NewGrantsProcessor(logger *slog.Logger, granter Granter, deadLetterProducer kafka.MessageProducer) *GrantsProcessor {
	return &GrantsProcessor{
		logger:             logger,
		granter:            granter,
		deadLetterProducer: deadLetterProducer,
	}
}

func (processor *GrantsProcessor) ProcessCommands(ctx context.Context, records []*kgo.Record) []*kgo.Record {
	span := tracer.GetTracerSpan(ctx, "grants", "Grants.ProcessCommands")
	recordsAttr := attribute.Int("records.length", len(records))
	span.SetAttributes(recordsAttr)
	defer span.End()

	wg := sync.WaitGroup{}
	wg.Add(len(records))

	var mu sync.Mutex
	processedRecords := make([]*kgo.Record, 0)

	for _, record := range records {
		go func(record *kgo.Record) {
			defer wg.Done()

			sp := tracer.GetTracerSpan(ctx, "grants", "Grants.ProcessOneCommand")
			defer sp.End()

			command := GrantCommand{}
			err := json.Unmarshal(record.Value, &command)
			if err != nil {
				processor.logger.Error("Error unmarshalling grant command", slog.String("error", err.Error()))
				utils.CaptureError(err)

				mu.Lock()
				// If we fail to unmarshal the record, we should commit it as it will fail forever
				processedRecords = append(processedRecords, record)
				mu.Unlock()
				return
			}

			result := processor.processCommand(ctx, &command)
			if result.Failure() {
				processor.logger.Error(
					result.ErrorMessage(),
					slog.String("error_code", result.ErrorCode()),
					slog.String("error", result.ErrorMsg()),
					slog.String("command_id", command.CommandID),
				)

				if result.IsCapturable() {
					utils.CaptureErrorResultWithExtra(result, "command", command)
				}

				if result.IsRetryable() && time.Since(command.IssuedAt.Time()) < 12*time.Hour {
					// For retryable errors, we should avoid committing the record,
					// It will be consumed again and reprocessed
					// Commands older than 12 hours should also be pushed dead letter queue
					return
				}

				go processor.produceToDeadLetterQueue(ctx, command, result)
			}

			mu.Lock()
			processedRecords = append(processedRecords, record)
			mu.Unlock()
		}(record)
	}

	wg.Wait()

	return processedRecords
}

func (processor *GrantsProcessor) processCommand(ctx context.Context, command *GrantCommand) utils.Result[*ledger.GrantOutcome] {
	return processor.granter.Grant(ctx, ledger.GrantParams{
		TenantID:    command.TenantID,
		Amount:      command.Amount,
		Type:        models.TransactionType(command.Type),
		Description: command.Description,
	})
}

func (processor *GrantsProcessor) produceToDeadLetterQueue(ctx context.Context, command GrantCommand, errorResult utils.AnyResult) {
	if processor.deadLetterProducer == nil {
		return
	}

	failedCommand := FailedGrantCommand{
		GrantCommand:        command,
		InitialErrorMessage: errorResult.ErrorMsg(),
		ErrorCode:           errorResult.ErrorCode(),
		ErrorMessage:        errorResult.ErrorMessage(),
		FailedAt:            time.Now(),
	}

	commandJson, err := json.Marshal(failedCommand)
	if err != nil {
		processor.logger.Error("error while marshaling failed grant command with error details")
		utils.CaptureError(err)
	}

	pushed := processor.deadLetterProducer.Produce(ctx, &kafka.ProducerMessage{
		Value: commandJson,
	})

	if !pushed {
		processor.logger.Error("error while pushing to dead letter topic", slog.String("topic", processor.deadLetterProducer.GetTopic()))
		utils.CaptureErrorResultWithExtra(errorResult, "command", command)
	}
}

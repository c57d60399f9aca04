package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// OperationEventHandler handles operation request messages from Kafka
type OperationEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewOperationEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *OperationEventHandler {
	return &OperationEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage decodes and applies one request. Undecodable requests are dead-lettered.
func (h *OperationEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var request transaction.OperationRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		return h.deadLetter(ctx, msg, "Failed to unmarshal operation request", err)
	}
	if request.RequestID == uuid.Nil || request.OwnerID == "" {
		return h.deadLetter(ctx, msg, "Operation request without request_id or owner_id", nil)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received operation request for processing",
		"request_id", request.RequestID.String(),
		"owner_id", request.OwnerID,
		"kind", string(request.Operation.Kind),
		"amount", request.Operation.Amount.StringFixed(2),
	)

	if err := h.processingService.ProcessOperation(ctx, &request); err != nil {
		logger.Error("Failed to process operation request", "request_id", request.RequestID.String(), "error", err)
		return fmt.Errorf("processing operation %s failed: %w", request.RequestID.String(), err)
	}

	return nil
}

func (h *OperationEventHandler) deadLetter(ctx context.Context, msg kafka.Message, reason string, cause error) error {
	if cause != nil {
		reason = fmt.Sprintf("%s: %s", reason, cause.Error())
	}
	h.logger.Error("Unprocessable operation message", "reason", reason, "message_key", string(msg.Key), "offset", msg.Offset)

	if h.producer == nil {
		return nil
	}
	if err := h.producer.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason); err != nil {
		if errors.Is(err, producers.ErrDLQDisabled) {
			h.logger.Warn("DLQ disabled, dropping unprocessable message", "message_key", string(msg.Key))
			return nil
		}
		// Redeliver until the DLQ accepts it
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}

	h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(msg.Key))
	return nil
}

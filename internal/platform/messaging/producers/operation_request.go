package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/segmentio/kafka-go"
)

const HeaderCorrelationID = "correlation-id"

// ErrPublisherDisabled is returned for asynchronous submissions when no broker is configured
var ErrPublisherDisabled = errors.New("operation publisher not configured")

// OperationRequestProducer publishes operation requests keyed by owner, so one owner's
// requests land on one partition and are applied in publish order.
type OperationRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewOperationRequestProducer ensures the topic exists and returns a synchronous producer
func NewOperationRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*OperationRequestProducer, error) {
	if cfg.OperationTopic == "" {
		return nil, fmt.Errorf("kafka operation topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for operation producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.OperationTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure operation topic %s exists: %w", cfg.OperationTopic, err)
	}

	// Synchronous writes: the API answers 202 only after the broker has the request.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.OperationTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return newOperationRequestProducer(logger, writer, cfg.OperationTopic), nil
}

func newOperationRequestProducer(logger *slog.Logger, writer KafkaWriter, topic string) *OperationRequestProducer {
	return &OperationRequestProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

func (p *OperationRequestProducer) PublishOperation(ctx context.Context, req *transaction.OperationRequest) error {
	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal operation request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(req.OwnerID),
		Value: value,
	}
	if req.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(req.CorrelationID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish operation request",
			"topic", p.topic,
			"request_id", req.RequestID.String(),
			"owner_id", req.OwnerID,
			"error", err,
		)
		return fmt.Errorf("failed to publish operation request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published operation request",
		"topic", p.topic,
		"request_id", req.RequestID.String(),
		"kind", string(req.Operation.Kind),
	)
	return nil
}

func (p *OperationRequestProducer) Close() error {
	p.logger.Info("Closing operation request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

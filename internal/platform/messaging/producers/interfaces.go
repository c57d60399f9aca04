package producers

import (
	"context"

	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/segmentio/kafka-go"
)

// OperationPublisher hands ledger operations to the processor
type OperationPublisher interface {
	PublishOperation(ctx context.Context, req *transaction.OperationRequest) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

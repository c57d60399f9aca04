package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/outbox"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry stores the entry for the poller in the caller's transaction
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *journal.Entry) error {
	logger := m.logger
	if entry.CorrelationID != "" {
		logger = m.logger.With("correlation_id", entry.CorrelationID)
	}

	outboxMessage, err := outbox.NewMessage(entry)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)", "event_id", entry.EventID, "error", err)
		return fmt.Errorf("failed to create outbox message payload for event %s: %w", entry.EventID, err)
	}

	if err = m.outboxRepo.WithTx(tx).Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"event_id", entry.EventID,
			"owner_id", entry.OwnerID,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for event %s: %w", entry.EventID, err)
	}
	logger.Debug("Outbox message created",
		"event_id", entry.EventID,
		"event_type", string(entry.EventType),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}

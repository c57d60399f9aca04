package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/outbox"
	"github.com/mindful-finance-ledger/internal/domain/shared"
)

// JournalPublisher moves outbox messages into the journal read model
type JournalPublisher interface {
	PublishToJournal(ctx context.Context, message *outbox.Message) error
}

type JournalPublisherImpl struct {
	outboxRepo  outbox.Repository
	journalRepo journal.Repository
	logger      *slog.Logger
}

func NewJournalPublisher(
	outboxRepo outbox.Repository,
	journalRepo journal.Repository,
	logger *slog.Logger,
) JournalPublisher {
	return &JournalPublisherImpl{
		outboxRepo:  outboxRepo,
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// PublishToJournal writes the entry and marks the message processed. An entry already in the
// journal counts as published, so a crash between the two writes only repeats the second.
func (p *JournalPublisherImpl) PublishToJournal(ctx context.Context, message *outbox.Message) error {
	entry, err := message.JournalEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal journal entry from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	now := time.Now().UTC()
	entry.PublishedAt = &now

	if err := p.journalRepo.Create(ctx, entry); err != nil {
		if !errors.Is(err, journal.ErrDuplicateEntry{}) {
			logger.Error("Failed to create journal entry", "event_id", entry.EventID, "error", err)
			return fmt.Errorf("failed to create journal entry %s: %w", entry.EventID, err)
		}
		logger.Info("Journal entry already exists", "event_id", entry.EventID)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", entry.EventID, "error", err,
		)
		return fmt.Errorf("journal write for %s OK, but failed to mark outbox %d as PROCESSED: %w", entry.EventID, message.ID, err)
	}

	logger.Debug("Outbox message published to journal", "outbox_id", message.ID, "event_id", entry.EventID, "event_type", string(entry.EventType))
	return nil
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
)

type JournalServiceImpl struct {
	journal journal.Repository
	logger  *slog.Logger
}

func NewJournalService(logger *slog.Logger, repo journal.Repository) JournalService {
	return &JournalServiceImpl{
		journal: repo,
		logger:  logger,
	}
}

func (s *JournalServiceImpl) ListEntries(ctx context.Context, ownerID string, eventType journal.EventType, page, perPage int) ([]*journal.Entry, int64, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	entries, err := s.journal.ListByOwner(ctx, ownerID, eventType, perPage, offset)
	if err != nil {
		return nil, 0, shared.WrapStorage("list journal entries", err)
	}
	total, err := s.journal.CountByOwner(ctx, ownerID, eventType)
	if err != nil {
		return nil, 0, shared.WrapStorage("count journal entries", err)
	}
	return entries, total, nil
}

func (s *JournalServiceImpl) ListEntriesBetween(ctx context.Context, ownerID string, from, to time.Time, page, perPage int) ([]*journal.Entry, error) {
	if to.Before(from) {
		return nil, shared.NewValidationError("to", "must not be before from")
	}
	if page < 1 {
		page = 1
	}

	entries, err := s.journal.GetByTimeRange(ctx, ownerID, from, to, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.WrapStorage("list journal entries by time", err)
	}
	return entries, nil
}

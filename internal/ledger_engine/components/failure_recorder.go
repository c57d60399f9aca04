package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
)

type FailureRecorderImpl struct {
	journalRepo journal.Repository
	logger      *slog.Logger
}

func NewFailureRecorder(journalRepo journal.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		journalRepo: journalRepo,
		logger:      logger,
	}
}

// RecordRejection writes an OPERATION_REJECTED entry. A redelivered request finds its
// entry already present and is treated as recorded.
func (r *FailureRecorderImpl) RecordRejection(ctx context.Context, request *transaction.OperationRequest, reason shared.RejectionReason, detail string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	entry := journal.NewRejectedEntry(request, reason, detail)
	if err := r.journalRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, journal.ErrDuplicateEntry{}) {
			logger.Info("Rejection already journaled", "request_id", request.RequestID.String())
			return nil
		}
		logger.Error("Failed to journal rejected operation", "request_id", request.RequestID.String(), "error", err)
		return err
	}

	logger.Info("Rejected operation journaled", "request_id", request.RequestID.String(), "reason", string(reason))
	return nil
}

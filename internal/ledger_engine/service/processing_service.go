package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
)

type ProcessingServiceImpl struct {
	engine          Engine
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewProcessingService(engine Engine, failureRecorder FailureRecorder, logger *slog.Logger) ProcessingService {
	return &ProcessingServiceImpl{
		engine:          engine,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

// ProcessOperation applies a consumed request through the engine. Business rejections are
// journaled and swallowed so the message is acknowledged; only storage failures are
// returned, leaving the message for redelivery.
func (s *ProcessingServiceImpl) ProcessOperation(ctx context.Context, request *transaction.OperationRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
		ctx = shared.WithCorrelationID(ctx, request.CorrelationID)
	}

	logger.Info("Processing operation request",
		"request_id", request.RequestID.String(),
		"owner_id", request.OwnerID,
		"kind", string(request.Operation.Kind),
	)

	op := request.Operation
	op.RequestID = request.RequestID

	txn, err := s.engine.Apply(ctx, request.OwnerID, op)
	if err == nil {
		logger.Info("Operation request applied", "request_id", request.RequestID.String(), "transaction_id", txn.ID.String())
		return nil
	}

	if !shared.IsDomainError(err) {
		// Let Kafka redeliver
		return err
	}

	reason := RejectionReasonFor(err)
	logger.Warn("Operation request rejected", "request_id", request.RequestID.String(), "reason", string(reason), "error", err)
	if recordErr := s.failureRecorder.RecordRejection(ctx, request, reason, err.Error()); recordErr != nil {
		logger.Error("Failed to record rejected operation", "request_id", request.RequestID.String(), "error", recordErr)
	}
	return nil
}

// RejectionReasonFor maps a domain error to the reason stored in the journal.
func RejectionReasonFor(err error) shared.RejectionReason {
	switch {
	case errors.Is(err, account.ErrInsufficientFunds{}):
		return shared.RejectionReasonInsufficientFunds
	case errors.Is(err, account.ErrCreditLimitExceeded{}):
		return shared.RejectionReasonCreditLimitExceeded
	case errors.Is(err, shared.ErrNotFound):
		return shared.RejectionReasonAccountNotFound
	case errors.Is(err, shared.ErrValidation):
		return shared.RejectionReasonValidation
	case errors.Is(err, shared.ErrConflict):
		return shared.RejectionReasonConflict
	default:
		return shared.RejectionReasonUnknown
	}
}

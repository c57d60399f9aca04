package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	ledger "github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/platform/messaging/producers"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	engine          ledger.Engine
	transactions    transaction.Repository
	producer        producers.OperationPublisher
	defaultPageSize int
	maxPageSize     int
	logger          *slog.Logger
}

// NewTransactionService creates a new transaction service. A nil producer disables Submit.
func NewTransactionService(
	logger *slog.Logger,
	engine ledger.Engine,
	transactions transaction.Repository,
	producer producers.OperationPublisher,
	cfg config.LedgerConfig,
) TransactionService {
	return &TransactionServiceImpl{
		engine:          engine,
		transactions:    transactions,
		producer:        producer,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		logger:          logger,
	}
}

func (s *TransactionServiceImpl) Apply(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error) {
	return s.engine.Apply(ctx, ownerID, op)
}

// Submit validates the operation shape up front so malformed requests never reach the broker
func (s *TransactionServiceImpl) Submit(ctx context.Context, ownerID string, op transaction.Operation, correlationID string) (*transaction.OperationRequest, error) {
	if s.producer == nil {
		return nil, shared.NewStorageError("publish operation", producers.ErrPublisherDisabled)
	}

	req, err := transaction.NewOperationRequest(ownerID, op, correlationID)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishOperation(ctx, req); err != nil {
		s.logger.Error("Failed to publish operation request",
			"owner_id", ownerID,
			"request_id", req.RequestID.String(),
			"kind", string(op.Kind),
			"error", err,
		)
		return nil, shared.WrapStorage("publish operation", err)
	}

	s.logger.Info("Operation request published",
		"owner_id", ownerID,
		"request_id", req.RequestID.String(),
		"kind", string(op.Kind),
		"amount", op.Amount.String(),
	)
	return req, nil
}

func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, ownerID string, id uuid.UUID) (*transaction.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, shared.WrapStorage("get transaction", err)
	}
	return txn, nil
}

func (s *TransactionServiceImpl) ListTransactions(ctx context.Context, ownerID string, filter transaction.Filter) ([]*transaction.Transaction, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	filter = filter.Normalize(s.defaultPageSize, s.maxPageSize)

	txns, err := s.transactions.List(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, shared.WrapStorage("list transactions", err)
	}
	total, err := s.transactions.Count(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, shared.WrapStorage("count transactions", err)
	}
	return txns, total, nil
}

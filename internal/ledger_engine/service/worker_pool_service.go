package service

import (
	"context"
	"log/slog"

	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds the number of operations applied concurrently
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessOperation runs the request on a pool worker and waits for its result.
func (s *WorkerPoolProcessingService) ProcessOperation(ctx context.Context, request *transaction.OperationRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting operation to worker pool", "request_id", request.RequestID.String(), "owner_id", request.OwnerID)

	resultChan := make(chan error, 1)
	requestCopy := *request

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.ProcessOperation(ctx, &requestCopy)
	})
	if err != nil {
		logger.Error("Failed to submit operation to worker pool", "request_id", request.RequestID.String(), "error", err)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}

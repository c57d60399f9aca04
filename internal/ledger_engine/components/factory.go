package components

import (
	"log/slog"

	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/outbox"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

// Repositories groups the stores the engine writes through
type Repositories struct {
	Accounts     account.Repository
	Transactions transaction.Repository
	Categories   category.Repository
	Outbox       outbox.Repository
	Locker       account.OwnerLocker
}

// CreateEngine wires the engine with its components.
func CreateEngine(db persistence.TxRunner, repos Repositories, cfg config.LedgerConfig, logger *slog.Logger) *service.LedgerEngine {
	return service.NewLedgerEngine(
		db,
		repos.Accounts,
		repos.Transactions,
		repos.Locker,
		NewOperationValidator(repos.Categories, logger),
		NewAccountManager(repos.Accounts, cfg.BalanceTolerance, logger),
		NewOutboxManager(repos.Outbox, logger),
		cfg.BalanceTolerance,
		logger,
	)
}

// CreateProcessingService wraps the engine for broker consumption, on a worker pool when
// the configured size allows one.
func CreateProcessingService(
	engine service.Engine,
	journalRepo journal.Repository,
	cfg *config.Config,
	logger *slog.Logger,
) service.ProcessingService {
	baseService := service.NewProcessingService(engine, NewFailureRecorder(journalRepo, logger), logger)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

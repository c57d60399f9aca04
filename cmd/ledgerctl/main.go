package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/cli"
	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/data/mongo"
	"github.com/mindful-finance-ledger/internal/data/postgres"
	"github.com/mindful-finance-ledger/internal/domain/legacy"
	"github.com/mindful-finance-ledger/internal/ledger_engine/components"
	"github.com/mindful-finance-ledger/internal/logger"
	"github.com/mindful-finance-ledger/internal/migration"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
	"github.com/mindful-finance-ledger/internal/registry"
)

// backend joins the maintenance operations with the account registry and the legacy store
type backend struct {
	service.MaintenanceService
	*registry.Service
	legacy legacy.Source
}

func (b backend) StageLegacy(ctx context.Context, snapshot *legacy.Snapshot) error {
	return b.legacy.Save(ctx, snapshot)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// open runs after the env file flag was applied, so configuration sees its values
func open(ctx context.Context) (cli.Backend, func(), error) {
	cfg, err := config.LoadConfig("ledgerctl")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		postgresDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}

	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	ownerLocker := postgres.NewOwnerLockRepository(log, postgresDB)

	engine := components.CreateEngine(postgresDB, components.Repositories{
		Accounts:     accountRepo,
		Transactions: transactionRepo,
		Categories:   postgres.NewCategoryRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
		Locker:       ownerLocker,
	}, cfg.Ledger, log.With("component", "ledger_engine"))

	legacySource := mongo.NewLegacyRepository(log, mongoDB.Database())
	migrator := migration.NewMigrator(
		postgresDB,
		legacySource,
		postgres.NewMigrationMarkerRepository(log, postgresDB),
		accountRepo, transactionRepo, ownerLocker, engine, cfg.Ledger,
		log.With("component", "migration"),
	)

	b := backend{
		MaintenanceService: service.NewMaintenanceService(log, engine, migrator),
		Service:            registry.NewService(postgresDB, accountRepo, transactionRepo, ownerLocker, cfg.Ledger, log),
		legacy:             legacySource,
	}
	closeFn := func() {
		if err := mongoDB.Close(context.Background()); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
		postgresDB.Close()
	}
	return b, closeFn, nil
}

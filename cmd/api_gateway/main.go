package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindful-finance-ledger/internal/api_gateway"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/data/mongo"
	"github.com/mindful-finance-ledger/internal/data/postgres"
	"github.com/mindful-finance-ledger/internal/ledger_engine/components"
	"github.com/mindful-finance-ledger/internal/logger"
	"github.com/mindful-finance-ledger/internal/migration"
	"github.com/mindful-finance-ledger/internal/platform/messaging/producers"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
	"github.com/mindful-finance-ledger/internal/registry"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// The API only publishes; a broker outage disables async submits instead of the whole API
	var operationProducer producers.OperationPublisher
	kafkaProducer, err := producers.NewOperationRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Warn("Kafka producer unavailable, asynchronous submits are disabled", "error", err)
	} else {
		operationProducer = kafkaProducer
	}

	// Repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	categoryRepo := postgres.NewCategoryRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	ownerLocker := postgres.NewOwnerLockRepository(log, postgresDB)
	markerRepo := postgres.NewMigrationMarkerRepository(log, postgresDB)
	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())
	legacySource := mongo.NewLegacyRepository(log, mongoDB.Database())

	engine := components.CreateEngine(postgresDB, components.Repositories{
		Accounts:     accountRepo,
		Transactions: transactionRepo,
		Categories:   categoryRepo,
		Outbox:       outboxRepo,
		Locker:       ownerLocker,
	}, cfg.Ledger, log.With("component", "ledger_engine"))

	migrator := migration.NewMigrator(
		postgresDB, legacySource, markerRepo, accountRepo, transactionRepo, ownerLocker,
		engine, cfg.Ledger, log.With("component", "migration"),
	)

	// Services
	accountService := registry.NewService(postgresDB, accountRepo, transactionRepo, ownerLocker, cfg.Ledger, log)
	services := api_gateway.Services{
		Accounts:     accountService,
		Transactions: service.NewTransactionService(log, engine, transactionRepo, operationProducer, cfg.Ledger),
		Categories:   service.NewCategoryService(log, categoryRepo, transactionRepo),
		Dashboard:    service.NewDashboardService(log, accountService, transactionRepo),
		Maintenance:  service.NewMaintenanceService(log, engine, migrator),
		Journal:      service.NewJournalService(log, journalRepo),
	}

	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain requests before closing the stores they use
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if kafkaProducer != nil {
		if err = kafkaProducer.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Server shutdown completed")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/data/mongo"
	"github.com/mindful-finance-ledger/internal/data/postgres"
	"github.com/mindful-finance-ledger/internal/ledger_engine/components"
	"github.com/mindful-finance-ledger/internal/ledger_engine/consumer"
	"github.com/mindful-finance-ledger/internal/ledger_engine/outbox_poller"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/logger"
	"github.com/mindful-finance-ledger/internal/platform/messaging/consumers"
	"github.com/mindful-finance-ledger/internal/platform/messaging/producers"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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
	if err := mongoDB.EnsureIndexes(appCtx, mongo.JournalIndexes(), mongo.LegacyIndexes()); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		os.Exit(1)
	}

	// Repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	categoryRepo := postgres.NewCategoryRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	ownerLocker := postgres.NewOwnerLockRepository(log, postgresDB)
	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// dlqProducer is nil when no DLQ topic is configured; the handler is nil-safe
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	engine := components.CreateEngine(postgresDB, components.Repositories{
		Accounts:     accountRepo,
		Transactions: transactionRepo,
		Categories:   categoryRepo,
		Outbox:       outboxRepo,
		Locker:       ownerLocker,
	}, cfg.Ledger, log.With("component", "ledger_engine"))

	processingService := components.CreateProcessingService(engine, journalRepo, cfg, log)

	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}
	operationEventHandler := consumer.NewOperationEventHandler(log, processingService, deadLetters)

	journalPublisher := outbox_poller.NewJournalPublisher(outboxRepo, journalRepo, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, journalPublisher, log)

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.OperationTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, operationEventHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to Kafka", "error", err)
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-kafkaConsumer.Done()
		if appCtx.Err() == nil {
			errChan <- fmt.Errorf("kafka consumer stopped unexpectedly")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	// Let queued operations finish before the stores go away
	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Ledger Processor shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Ledger Processor shutdown completed")
}

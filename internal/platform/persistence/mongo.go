package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mindful-finance-ledger/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionIndexes declares the indexes a repository relies on
type CollectionIndexes struct {
	Collection string
	Models     []mongo.IndexModel
}

type MongoDB struct {
	logger   *slog.Logger
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoDB(ctx context.Context, logger *slog.Logger, cfg *config.MongoDBConfig) (*MongoDB, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", cfg.Database)

	return NewMongoDBWithDatabase(logger, client, client.Database(cfg.Database)), nil
}

// NewMongoDBWithDatabase wraps an already connected client
func NewMongoDBWithDatabase(logger *slog.Logger, client *mongo.Client, database *mongo.Database) *MongoDB {
	return &MongoDB{
		logger:   logger,
		client:   client,
		database: database,
	}
}

func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// EnsureIndexes creates missing indexes. Existing identical indexes are left alone by the server.
func (m *MongoDB) EnsureIndexes(ctx context.Context, specs ...CollectionIndexes) error {
	for _, spec := range specs {
		if len(spec.Models) == 0 {
			continue
		}
		names, err := m.database.Collection(spec.Collection).Indexes().CreateMany(ctx, spec.Models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", spec.Collection, err)
		}
		m.logger.Debug("Ensured MongoDB indexes", "collection", spec.Collection, "indexes", names)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	m.logger.Info("Closed MongoDB connection")
	return nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

const (
	// JournalCollectionName is the name of the journal collection in MongoDB
	JournalCollectionName = "journal_entries"
)

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalRepository creates a new MongoDB journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) journal.Repository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// JournalIndexes makes event_id unique so redelivered outbox messages are journaled once.
func JournalIndexes() persistence.CollectionIndexes {
	return persistence.CollectionIndexes{
		Collection: JournalCollectionName,
		Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uq_event_id"),
			},
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_owner_created_at"),
			},
		},
	}
}

// Create stores a new journal entry.
// Returns ErrDuplicateEntry if an entry with the same event ID exists.
func (r *JournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	collection := r.db.Collection(JournalCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to create journal entry",
			"event_id", entry.EventID,
			"error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByEventID returns ErrEntryNotFound if nothing was journaled for eventID.
func (r *JournalRepository) GetByEventID(ctx context.Context, eventID string) (*journal.Entry, error) {
	collection := r.db.Collection(JournalCollectionName)

	var entry journal.Entry
	err := collection.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get journal entry",
			"event_id", eventID,
			"error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return &entry, nil
}

// ListByOwner returns the owner's entries newest first. An empty eventType matches every type.
func (r *JournalRepository) ListByOwner(ctx context.Context, ownerID string, eventType journal.EventType, limit, offset int) ([]*journal.Entry, error) {
	entries, err := r.find(ctx, ownerFilter(ownerID, eventType), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list journal entries",
			"owner_id", ownerID,
			"event_type", string(eventType),
			"error", err)
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) CountByOwner(ctx context.Context, ownerID string, eventType journal.EventType) (int64, error) {
	collection := r.db.Collection(JournalCollectionName)

	count, err := collection.CountDocuments(ctx, ownerFilter(ownerID, eventType))
	if err != nil {
		r.logger.Error("Failed to count journal entries",
			"owner_id", ownerID,
			"error", err)
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated entries created within [startTime, endTime], newest first.
func (r *JournalRepository) GetByTimeRange(ctx context.Context, ownerID string, startTime, endTime time.Time, limit, offset int) ([]*journal.Entry, error) {
	entries, err := r.find(ctx, timeRangeFilter(ownerID, startTime, endTime), limit, offset)
	if err != nil {
		r.logger.Error("Failed to get journal entries by time range",
			"owner_id", ownerID,
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get journal entries by time range: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*journal.Entry, error) {
	collection := r.db.Collection(JournalCollectionName)

	cursor, err := collection.Find(ctx, filter, pageOptions(limit, offset))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]*journal.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func ownerFilter(ownerID string, eventType journal.EventType) bson.M {
	filter := bson.M{"owner_id": ownerID}
	if eventType != "" {
		filter["event_type"] = eventType
	}
	return filter
}

func timeRangeFilter(ownerID string, startTime, endTime time.Time) bson.M {
	return bson.M{
		"owner_id": ownerID,
		"created_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
}

func pageOptions(limit, offset int) *options.FindOptions {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "event_id", Value: 1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

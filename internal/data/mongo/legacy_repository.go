package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindful-finance-ledger/internal/domain/legacy"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

// LegacyCollectionName holds one document per owner with the pre-ledger records
const LegacyCollectionName = "legacy_records"

// LegacyRepository implements legacy.Source for MongoDB
type LegacyRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewLegacyRepository(logger *slog.Logger, db *mongo.Database) legacy.Source {
	return &LegacyRepository{
		db:     db,
		logger: logger,
	}
}

func LegacyIndexes() persistence.CollectionIndexes {
	return persistence.CollectionIndexes{
		Collection: LegacyCollectionName,
		Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uq_owner_id"),
			},
		},
	}
}

// Load returns an empty snapshot for owners without legacy records.
func (r *LegacyRepository) Load(ctx context.Context, ownerID string) (*legacy.Snapshot, error) {
	collection := r.db.Collection(LegacyCollectionName)

	var snapshot legacy.Snapshot
	err := collection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &legacy.Snapshot{OwnerID: ownerID}, nil
		}
		r.logger.Error("Failed to load legacy records",
			"owner_id", ownerID,
			"error", err)
		return nil, fmt.Errorf("failed to load legacy records: %w", err)
	}

	return &snapshot, nil
}

// Save replaces the owner's legacy document, creating it when absent.
func (r *LegacyRepository) Save(ctx context.Context, snapshot *legacy.Snapshot) error {
	if snapshot == nil || snapshot.OwnerID == "" {
		return errors.New("legacy snapshot requires an owner id")
	}
	collection := r.db.Collection(LegacyCollectionName)

	_, err := collection.ReplaceOne(ctx,
		bson.M{"owner_id": snapshot.OwnerID},
		snapshot,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("Failed to save legacy records",
			"owner_id", snapshot.OwnerID,
			"error", err)
		return fmt.Errorf("failed to save legacy records: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/legacy"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

// MigrationMarkerRepository records which owners have had their legacy data imported
type MigrationMarkerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewMigrationMarkerRepository(logger *slog.Logger, db *persistence.PostgresDB) legacy.MarkerRepository {
	return &MigrationMarkerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *MigrationMarkerRepository) WithTx(tx pgx.Tx) legacy.MarkerRepository {
	return &MigrationMarkerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *MigrationMarkerRepository) Get(ctx context.Context, ownerID string) (*legacy.Marker, error) {
	query := `
		SELECT owner_id, migrated_at, accounts_imported, transactions_imported, records_skipped
		FROM migration_markers
		WHERE owner_id = $1
	`

	var m legacy.Marker
	err := r.querier.QueryRow(ctx, query, ownerID).Scan(
		&m.OwnerID,
		&m.MigratedAt,
		&m.AccountsImported,
		&m.TransactionsImported,
		&m.RecordsSkipped,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get migration marker", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to get migration marker: %w", err)
	}

	return &m, nil
}

func (r *MigrationMarkerRepository) Set(ctx context.Context, m *legacy.Marker) error {
	query := `
		INSERT INTO migration_markers (owner_id, migrated_at, accounts_imported, transactions_imported, records_skipped)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query, m.OwnerID, m.MigratedAt, m.AccountsImported, m.TransactionsImported, m.RecordsSkipped)
	if err != nil {
		r.logger.Error("Failed to set migration marker", "owner_id", m.OwnerID, "error", err)
		return fmt.Errorf("failed to set migration marker: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ConflictError{Reason: "legacy data already migrated for owner " + m.OwnerID}
	}

	return nil
}

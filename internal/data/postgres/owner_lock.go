package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

// ownerLockClass namespaces the advisory keys taken on behalf of owners
const ownerLockClass = 7401

var errLockOutsideTx = errors.New("owner locks require a transaction")

// OwnerLockRepository takes transaction-scoped advisory locks keyed by owner id
type OwnerLockRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	inTx    bool
}

func NewOwnerLockRepository(logger *slog.Logger, db *persistence.PostgresDB) account.OwnerLocker {
	return &OwnerLockRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *OwnerLockRepository) WithTx(tx pgx.Tx) account.OwnerLocker {
	return &OwnerLockRepository{
		querier: tx,
		logger:  r.logger,
		inTx:    true,
	}
}

func (r *OwnerLockRepository) LockShared(ctx context.Context, ownerID string) error {
	return r.lock(ctx, `SELECT pg_advisory_xact_lock_shared($1, hashtext($2))`, ownerID, "shared")
}

func (r *OwnerLockRepository) LockExclusive(ctx context.Context, ownerID string) error {
	return r.lock(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, ownerID, "exclusive")
}

func (r *OwnerLockRepository) lock(ctx context.Context, query, ownerID, mode string) error {
	// xact locks taken on a pooled connection are released before the caller gets to use them
	if !r.inTx {
		return errLockOutsideTx
	}

	if _, err := r.querier.Exec(ctx, query, ownerLockClass, ownerID); err != nil {
		r.logger.Error("Failed to acquire owner lock", "owner_id", ownerID, "mode", mode, "error", err)
		return fmt.Errorf("failed to acquire %s owner lock: %w", mode, err)
	}
	return nil
}

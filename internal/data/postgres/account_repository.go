package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, owner_id, name, kind, balance, credit_limit, icon, color, is_active, version, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, owner_id, name, kind, balance, credit_limit, icon, color, is_active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query, accountArgs(acc)...)
	if err != nil {
		r.logger.Error("Failed to create account", "account_id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *AccountRepository) CreateIfAbsent(ctx context.Context, acc *account.Account) (bool, error) {
	query := `
		INSERT INTO accounts (id, owner_id, name, kind, balance, credit_limit, icon, color, is_active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query, accountArgs(acc)...)
	if err != nil {
		r.logger.Error("Failed to create account", "account_id", acc.ID.String(), "error", err)
		return false, fmt.Errorf("failed to create account: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "account_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND ($2 OR is_active)
		ORDER BY name, created_at
	`

	rows, err := r.querier.Query(ctx, query, ownerID, includeInactive)
	if err != nil {
		r.logger.Error("Failed to list accounts", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan account", "owner_id", ownerID, "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over accounts", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE owner_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		r.logger.Error("Failed to count accounts", "owner_id", ownerID, "error", err)
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	return count, nil
}

// UpdateDetails writes everything but the balance, guarded by the version column.
// On success acc.Version and acc.UpdatedAt reflect the stored row.
func (r *AccountRepository) UpdateDetails(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, kind = $2, credit_limit = $3, icon = $4, color = $5, is_active = $6,
			updated_at = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`

	now := time.Now().UTC()
	result, err := r.querier.Exec(ctx, query,
		acc.Name,
		string(acc.Kind),
		nullDecimal(acc.CreditLimit),
		acc.Icon,
		acc.Color,
		acc.IsActive,
		now,
		acc.ID,
		acc.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update account", "account_id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	acc.Version++
	acc.UpdatedAt = now
	return nil
}

// LockForUpdate must run inside a transaction
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account", "account_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, delta, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to apply balance delta",
			"account_id", id.String(),
			"delta", delta.StringFixed(2),
			"error", err,
		)
		return decimal.Zero, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	return balance, nil
}

func (r *AccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, balance, id)
	if err != nil {
		r.logger.Error("Failed to set account balance", "account_id", id.String(), "error", err)
		return fmt.Errorf("failed to set account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

func accountArgs(acc *account.Account) []interface{} {
	return []interface{}{
		acc.ID,
		acc.OwnerID,
		acc.Name,
		string(acc.Kind),
		acc.Balance,
		nullDecimal(acc.CreditLimit),
		acc.Icon,
		acc.Color,
		acc.IsActive,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	}
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		acc   account.Account
		kind  string
		limit decimal.NullDecimal
	)
	err := row.Scan(
		&acc.ID,
		&acc.OwnerID,
		&acc.Name,
		&kind,
		&acc.Balance,
		&limit,
		&acc.Icon,
		&acc.Color,
		&acc.IsActive,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Kind = account.Kind(kind)
	if limit.Valid {
		l := limit.Decimal
		acc.CreditLimit = &l
	}
	return &acc, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

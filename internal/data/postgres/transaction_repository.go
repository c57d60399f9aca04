package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

const (
	transactionColumns = `id, owner_id, kind, account_id, target_account_id, amount, description, category_id, emotion, occurred_on, created_at, legacy_ref`

	uniqueViolation = "23505"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if _, err := r.querier.Exec(ctx, query, transactionArgs(txn)...); err != nil {
		if isUniqueViolation(err) {
			return transaction.ErrDuplicateTransaction{TransactionID: txn.ID}
		}
		r.logger.Error("Failed to create transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) CreateIfAbsent(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query, transactionArgs(txn)...)
	if err != nil {
		r.logger.Error("Failed to create transaction", "transaction_id", txn.ID.String(), "error", err)
		return false, fmt.Errorf("failed to create transaction: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND owner_id = $2`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

func (r *TransactionRepository) List(ctx context.Context, ownerID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	where, args := buildTransactionFilter(ownerID, filter)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where +
		` ORDER BY occurred_on DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	return r.query(ctx, query, ownerID, args...)
}

func (r *TransactionRepository) Count(ctx context.Context, ownerID string, filter transaction.Filter) (int64, error) {
	where, args := buildTransactionFilter(ownerID, filter)
	return r.count(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, ownerID, args...)
}

func (r *TransactionRepository) History(ctx context.Context, ownerID string) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = $1 ORDER BY occurred_on, created_at`
	return r.query(ctx, query, ownerID, ownerID)
}

func (r *TransactionRepository) CountReferencing(ctx context.Context, ownerID string, accountID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE owner_id = $1 AND (account_id = $2 OR target_account_id = $2)`
	return r.count(ctx, query, ownerID, ownerID, accountID)
}

func (r *TransactionRepository) CountByCategory(ctx context.Context, ownerID, categoryID string) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE owner_id = $1 AND category_id = $2`
	return r.count(ctx, query, ownerID, ownerID, categoryID)
}

func (r *TransactionRepository) query(ctx context.Context, query, ownerID string, args ...interface{}) ([]*transaction.Transaction, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*transaction.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "owner_id", ownerID, "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}

func (r *TransactionRepository) count(ctx context.Context, query, ownerID string, args ...interface{}) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "owner_id", ownerID, "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// buildTransactionFilter renders the WHERE clause for filter with positional args starting at $1
func buildTransactionFilter(ownerID string, filter transaction.Filter) (string, []interface{}) {
	conds := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if filter.AccountID != nil {
		add("(account_id = ? OR target_account_id = ?)", *filter.AccountID)
	}
	if filter.CategoryID != "" {
		add("category_id = ?", filter.CategoryID)
	}
	if filter.Kind != "" {
		add("kind = ?", string(filter.Kind))
	}
	if filter.Emotion != "" {
		add("emotion = ?", string(filter.Emotion))
	}
	if filter.From != nil {
		add("occurred_on >= ?", transaction.Date(*filter.From))
	}
	if filter.To != nil {
		add("occurred_on <= ?", transaction.Date(*filter.To))
	}

	return strings.Join(conds, " AND "), args
}

func transactionArgs(txn *transaction.Transaction) []interface{} {
	return []interface{}{
		txn.ID,
		txn.OwnerID,
		string(txn.Kind),
		txn.AccountID,
		txn.TargetAccountID,
		txn.Amount,
		txn.Description,
		nullString(txn.CategoryID),
		nullString(string(txn.Emotion)),
		txn.OccurredOn,
		txn.CreatedAt,
		nullString(txn.LegacyRef),
	}
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		txn                         transaction.Transaction
		kind                        string
		category, emotion, legacyID *string
	)
	err := row.Scan(
		&txn.ID,
		&txn.OwnerID,
		&kind,
		&txn.AccountID,
		&txn.TargetAccountID,
		&txn.Amount,
		&txn.Description,
		&category,
		&emotion,
		&txn.OccurredOn,
		&txn.CreatedAt,
		&legacyID,
	)
	if err != nil {
		return nil, err
	}

	txn.Kind = transaction.Kind(kind)
	if category != nil {
		txn.CategoryID = *category
	}
	if emotion != nil {
		txn.Emotion = transaction.Emotion(*emotion)
	}
	if legacyID != nil {
		txn.LegacyRef = *legacyID
	}
	return &txn, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

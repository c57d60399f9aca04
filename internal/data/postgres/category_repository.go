package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
)

const categoryColumns = `id, COALESCE(owner_id, ''), name, kind, icon, color, created_at`

// CategoryRepository stores system categories (owner_id NULL) next to user-defined ones
type CategoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewCategoryRepository(logger *slog.Logger, db *persistence.PostgresDB) category.Repository {
	return &CategoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// ListForOwner returns system and own categories. A kind filter also matches categories of kind "both".
func (r *CategoryRepository) ListForOwner(ctx context.Context, ownerID string, kind category.Kind) ([]*category.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE (owner_id IS NULL OR owner_id = $1)
			AND ($2 = '' OR kind = $2 OR kind = 'both')
		ORDER BY owner_id IS NULL DESC, name
	`

	rows, err := r.querier.Query(ctx, query, ownerID, string(kind))
	if err != nil {
		r.logger.Error("Failed to list categories", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*category.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			r.logger.Error("Failed to scan category", "owner_id", ownerID, "error", err)
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over categories", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("error iterating over categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, ownerID, id string) (*category.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = $1 AND (owner_id IS NULL OR owner_id = $2)
	`

	c, err := scanCategory(r.querier.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrCategoryNotFound{CategoryID: id}
		}
		r.logger.Error("Failed to get category", "category_id", id, "error", err)
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (id, owner_id, name, kind, icon, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query, c.ID, nullString(c.OwnerID), c.Name, string(c.Kind), c.Icon, c.Color, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrDuplicateCategory{Name: c.Name}
		}
		r.logger.Error("Failed to create category", "category_id", c.ID, "error", err)
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// Update only touches rows owned by c.OwnerID, so system categories are never written
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	query := `
		UPDATE categories
		SET name = $1, kind = $2, icon = $3, color = $4
		WHERE id = $5 AND owner_id = $6
	`

	result, err := r.querier.Exec(ctx, query, c.Name, string(c.Kind), c.Icon, c.Color, c.ID, c.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrDuplicateCategory{Name: c.Name}
		}
		r.logger.Error("Failed to update category", "category_id", c.ID, "error", err)
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return category.ErrCategoryNotFound{CategoryID: c.ID}
	}

	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM categories WHERE id = $1 AND owner_id = $2`

	result, err := r.querier.Exec(ctx, query, id, ownerID)
	if err != nil {
		r.logger.Error("Failed to delete category", "category_id", id, "error", err)
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return category.ErrCategoryNotFound{CategoryID: id}
	}

	return nil
}

func scanCategory(row pgx.Row) (*category.Category, error) {
	var (
		c    category.Category
		kind string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &kind, &c.Icon, &c.Color, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Kind = category.Kind(kind)
	return &c, nil
}

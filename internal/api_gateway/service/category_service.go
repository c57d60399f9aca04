package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
)

type CategoryServiceImpl struct {
	categories   category.Repository
	transactions transaction.Repository
	logger       *slog.Logger
}

func NewCategoryService(logger *slog.Logger, categories category.Repository, transactions transaction.Repository) CategoryService {
	return &CategoryServiceImpl{
		categories:   categories,
		transactions: transactions,
		logger:       logger,
	}
}

func (s *CategoryServiceImpl) ListCategories(ctx context.Context, ownerID string, kind category.Kind) ([]*category.Category, error) {
	if kind != "" && !kind.Valid() {
		return nil, shared.NewValidationError("kind", "must be one of expense, income, both")
	}
	categories, err := s.categories.ListForOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, shared.WrapStorage("list categories", err)
	}
	return categories, nil
}

func (s *CategoryServiceImpl) CreateCategory(ctx context.Context, ownerID string, spec category.Spec) (*category.Category, error) {
	c, err := category.NewCategory(ownerID, spec)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, shared.WrapStorage("create category", err)
	}

	s.logger.Info("Category created", "owner_id", ownerID, "category_id", c.ID)
	return c, nil
}

func (s *CategoryServiceImpl) UpdateCategory(ctx context.Context, ownerID, id string, spec category.Spec) (*category.Category, error) {
	c, err := s.categories.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, shared.WrapStorage("get category", err)
	}
	if err := c.Update(spec); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, shared.WrapStorage("update category", err)
	}
	return c, nil
}

func (s *CategoryServiceImpl) DeleteCategory(ctx context.Context, ownerID, id string) error {
	c, err := s.categories.GetByID(ctx, ownerID, id)
	if err != nil {
		return shared.WrapStorage("get category", err)
	}
	if c.IsSystem() {
		return shared.ForbiddenError{Reason: "system categories cannot be deleted"}
	}

	refs, err := s.transactions.CountByCategory(ctx, ownerID, id)
	if err != nil {
		return shared.WrapStorage("count category references", err)
	}
	if refs > 0 {
		return shared.ConflictError{Reason: "category " + id + " is used by " + strconv.FormatInt(refs, 10) + " transactions"}
	}

	if err := s.categories.Delete(ctx, ownerID, id); err != nil {
		return shared.WrapStorage("delete category", err)
	}
	s.logger.Info("Category deleted", "owner_id", ownerID, "category_id", id)
	return nil
}

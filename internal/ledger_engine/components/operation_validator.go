package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
)

type OperationValidatorImpl struct {
	categoryRepo category.Repository
	logger       *slog.Logger
}

func NewOperationValidator(categoryRepo category.Repository, logger *slog.Logger) service.OperationValidator {
	return &OperationValidatorImpl{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// Validate checks the operation shape and, when a category is given, that the owner can see it
// and that it applies to the operation kind.
func (v *OperationValidatorImpl) Validate(ctx context.Context, ownerID string, op transaction.Operation) error {
	if ownerID == "" {
		return shared.NewValidationError("owner_id", "cannot be empty")
	}
	if err := op.Validate(); err != nil {
		return err
	}
	if op.CategoryID == "" {
		return nil
	}

	c, err := v.categoryRepo.GetByID(ctx, ownerID, op.CategoryID)
	if err != nil {
		if errors.Is(err, category.ErrCategoryNotFound{}) {
			return shared.NewValidationError("category_id", "is not a known category")
		}
		v.logger.Error("Failed to look up category", "owner_id", ownerID, "category_id", op.CategoryID, "error", err)
		return shared.WrapStorage("validate operation", err)
	}

	if op.Kind != transaction.KindTransfer && !c.Matches(category.Kind(op.Kind)) {
		return shared.NewValidationError("category_id", "does not apply to "+string(op.Kind)+" operations")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	own := &category.Category{ID: "c-1", OwnerID: "user-1", Name: "Pets", Kind: category.KindExpense}
	system := &category.Category{ID: category.IDFood, Name: "Food", Kind: category.KindExpense}

	tests := []struct {
		name     string
		setup    func(categories *mocks.CategoryRepository, txns *mocks.TransactionRepository)
		id       string
		expected error
	}{
		{
			name: "unused own category",
			id:   "c-1",
			setup: func(categories *mocks.CategoryRepository, txns *mocks.TransactionRepository) {
				categories.On("GetByID", ctx, "user-1", "c-1").Return(own, nil)
				txns.On("CountByCategory", ctx, "user-1", "c-1").Return(int64(0), nil)
				categories.On("Delete", ctx, "user-1", "c-1").Return(nil).Once()
			},
		},
		{
			name: "system category",
			id:   category.IDFood,
			setup: func(categories *mocks.CategoryRepository, txns *mocks.TransactionRepository) {
				categories.On("GetByID", ctx, "user-1", category.IDFood).Return(system, nil)
			},
			expected: shared.ErrForbidden,
		},
		{
			name: "category in use",
			id:   "c-1",
			setup: func(categories *mocks.CategoryRepository, txns *mocks.TransactionRepository) {
				categories.On("GetByID", ctx, "user-1", "c-1").Return(own, nil)
				txns.On("CountByCategory", ctx, "user-1", "c-1").Return(int64(3), nil)
			},
			expected: shared.ErrConflict,
		},
		{
			name: "unknown category",
			id:   "c-9",
			setup: func(categories *mocks.CategoryRepository, txns *mocks.TransactionRepository) {
				categories.On("GetByID", ctx, "user-1", "c-9").Return(nil, category.ErrCategoryNotFound{CategoryID: "c-9"})
			},
			expected: shared.ErrNotFound,
		},
		{
			name: "store failure",
			id:   "c-1",
			setup: func(categories *mocks.CategoryRepository, txns *mocks.TransactionRepository) {
				categories.On("GetByID", ctx, "user-1", "c-1").Return(nil, errors.New("conn reset"))
			},
			expected: shared.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := &mocks.CategoryRepository{}
			txns := &mocks.TransactionRepository{}
			tt.setup(categories, txns)
			svc := NewCategoryService(newTestLogger(), categories, txns)

			err := svc.DeleteCategory(ctx, "user-1", tt.id)
			if tt.expected == nil {
				require.NoError(t, err)
				categories.AssertExpectations(t)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
			categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCategoryService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateOwnCategory", func(t *testing.T) {
		categories := &mocks.CategoryRepository{}
		svc := NewCategoryService(newTestLogger(), categories, &mocks.TransactionRepository{})
		categories.On("Create", ctx, mock.AnythingOfType("*category.Category")).Return(nil).Once()

		c, err := svc.CreateCategory(ctx, "user-1", category.Spec{Name: " Pets ", Kind: category.KindExpense})
		require.NoError(t, err)
		assert.Equal(t, "Pets", c.Name)
		assert.Equal(t, "user-1", c.OwnerID)
		assert.Equal(t, category.DefaultIcon, c.Icon)
	})

	t.Run("DuplicateNameConflicts", func(t *testing.T) {
		categories := &mocks.CategoryRepository{}
		svc := NewCategoryService(newTestLogger(), categories, &mocks.TransactionRepository{})
		categories.On("Create", ctx, mock.Anything).Return(category.ErrDuplicateCategory{Name: "Pets"}).Once()

		_, err := svc.CreateCategory(ctx, "user-1", category.Spec{Name: "Pets", Kind: category.KindExpense})
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("SystemCategoryIsReadOnly", func(t *testing.T) {
		categories := &mocks.CategoryRepository{}
		svc := NewCategoryService(newTestLogger(), categories, &mocks.TransactionRepository{})
		categories.On("GetByID", ctx, "user-1", category.IDSalary).
			Return(&category.Category{ID: category.IDSalary, Name: "Salary", Kind: category.KindIncome}, nil)

		_, err := svc.UpdateCategory(ctx, "user-1", category.IDSalary, category.Spec{Name: "Wages", Kind: category.KindIncome})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		categories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("ListRejectsUnknownKind", func(t *testing.T) {
		svc := NewCategoryService(newTestLogger(), &mocks.CategoryRepository{}, &mocks.TransactionRepository{})
		_, err := svc.ListCategories(ctx, "user-1", "transfer")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

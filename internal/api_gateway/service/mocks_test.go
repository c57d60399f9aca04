package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	ledger "github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/migration"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Apply(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockEngine) Reconcile(ctx context.Context, ownerID string) (*ledger.ReconcileResult, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReconcileResult), args.Error(1)
}

func (m *MockEngine) ValidateIntegrity(ctx context.Context, ownerID string) (*ledger.IntegrityReport, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.IntegrityReport), args.Error(1)
}

type MockOperationPublisher struct {
	mock.Mock
}

func (m *MockOperationPublisher) PublishOperation(ctx context.Context, req *transaction.OperationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockOperationPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Migrate(ctx context.Context, ownerID string) (*migration.Result, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*migration.Result), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) EnsureDefaultAccounts(ctx context.Context, ownerID string) ([]*account.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error) {
	args := m.Called(ctx, ownerID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, ownerID string, spec account.Spec) (*account.Account, error) {
	args := m.Called(ctx, ownerID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, ownerID string, id uuid.UUID, patch account.Patch) (*account.Account, error) {
	args := m.Called(ctx, ownerID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) Summary(ctx context.Context, ownerID string) (account.Summary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(account.Summary), args.Error(1)
}

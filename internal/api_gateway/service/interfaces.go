package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	ledger "github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/migration"
	"github.com/mindful-finance-ledger/internal/reporting"
)

// AccountService is the account registry as seen by the HTTP layer
type AccountService interface {
	// EnsureDefaultAccounts creates the starter set for an owner without accounts
	// and returns the active accounts.
	EnsureDefaultAccounts(ctx context.Context, ownerID string) ([]*account.Account, error)
	ListAccounts(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error)
	// GetAccount returns ErrAccountNotFound for accounts of other owners
	GetAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error)
	CreateAccount(ctx context.Context, ownerID string, spec account.Spec) (*account.Account, error)
	UpdateAccount(ctx context.Context, ownerID string, id uuid.UUID, patch account.Patch) (*account.Account, error)
	// DeactivateAccount returns a conflict while transactions reference the account
	DeactivateAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error)
	Summary(ctx context.Context, ownerID string) (account.Summary, error)
}

// TransactionService applies operations and reads the owner's ledger
type TransactionService interface {
	// Apply commits the operation synchronously through the ledger engine
	Apply(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error)

	// Submit publishes the operation for asynchronous apply and returns the published request.
	// The request id becomes the transaction id once the processor commits it.
	Submit(ctx context.Context, ownerID string, op transaction.Operation, correlationID string) (*transaction.OperationRequest, error)

	GetTransaction(ctx context.Context, ownerID string, id uuid.UUID) (*transaction.Transaction, error)

	// ListTransactions returns one page and the total count matching filter
	ListTransactions(ctx context.Context, ownerID string, filter transaction.Filter) ([]*transaction.Transaction, int64, error)
}

type CategoryService interface {
	ListCategories(ctx context.Context, ownerID string, kind category.Kind) ([]*category.Category, error)
	CreateCategory(ctx context.Context, ownerID string, spec category.Spec) (*category.Category, error)
	UpdateCategory(ctx context.Context, ownerID, id string, spec category.Spec) (*category.Category, error)
	// DeleteCategory refuses system categories and categories still in use
	DeleteCategory(ctx context.Context, ownerID, id string) error
}

// DashboardService builds read models from the owner's accounts and ledger
type DashboardService interface {
	Dashboard(ctx context.Context, ownerID string, recent int) (*Dashboard, error)
	Report(ctx context.Context, ownerID string, by reporting.Dimension, criteria reporting.Criteria) ([]reporting.Total, error)
	Insights(ctx context.Context, ownerID string) (reporting.Insights, error)
}

// MaintenanceService exposes the owner-wide consistency operations
type MaintenanceService interface {
	Reconcile(ctx context.Context, ownerID string) (*ledger.ReconcileResult, error)
	ValidateIntegrity(ctx context.Context, ownerID string) (*ledger.IntegrityReport, error)
	MigrateLegacy(ctx context.Context, ownerID string) (*migration.Result, error)
}

type JournalService interface {
	// ListEntries returns one page of the owner's journal, newest first, and the total count
	ListEntries(ctx context.Context, ownerID string, eventType journal.EventType, page, perPage int) ([]*journal.Entry, int64, error)
	// ListEntriesBetween returns one page of entries created in [from, to], newest first
	ListEntriesBetween(ctx context.Context, ownerID string, from, to time.Time, page, perPage int) ([]*journal.Entry, error)
}

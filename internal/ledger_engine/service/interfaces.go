package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
)

// Engine is the single writer of account balances.
type Engine interface {
	Apply(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error)
	Reconcile(ctx context.Context, ownerID string) (*ReconcileResult, error)
	ValidateIntegrity(ctx context.Context, ownerID string) (*IntegrityReport, error)
}

// Reconciler rebuilds balances inside a caller-owned store transaction.
// The caller must already hold the exclusive owner lock.
type Reconciler interface {
	ReconcileTx(ctx context.Context, tx pgx.Tx, ownerID string) (*ReconcileResult, error)
}

// ProcessingService applies operation requests consumed from the broker.
type ProcessingService interface {
	ProcessOperation(ctx context.Context, request *transaction.OperationRequest) error
}

// OperationValidator checks an operation before any lock is taken
type OperationValidator interface {
	Validate(ctx context.Context, ownerID string, op transaction.Operation) error
}

// AccountManager handles the account side of an apply
type AccountManager interface {
	// LockAccounts row-locks the accounts in the given order, which must be ascending by id,
	// and checks that each one belongs to ownerID and is active.
	LockAccounts(ctx context.Context, tx pgx.Tx, ownerID string, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error)
	// ApplyEffects runs the funds check for every debit and writes the deltas.
	ApplyEffects(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, locked map[uuid.UUID]*account.Account) error
}

// OutboxManager writes journal entries to the outbox in the caller's transaction
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *journal.Entry) error
}

// FailureRecorder journals asynchronous requests that were not applied
type FailureRecorder interface {
	RecordRejection(ctx context.Context, request *transaction.OperationRequest, reason shared.RejectionReason, detail string) error
}

package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	// CreateIfAbsent inserts the account unless its id is already taken.
	CreateIfAbsent(ctx context.Context, account *Account) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByOwner(ctx context.Context, ownerID string, includeInactive bool) ([]*Account, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)

	// UpdateDetails persists descriptive fields and is_active using optimistic locking.
	// The balance column is never written here.
	UpdateDetails(ctx context.Context, account *Account) error

	// LockForUpdate acquires a row lock for balance mutation
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	// ApplyDelta adds delta to the stored balance and returns the new balance.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	// SetBalance overwrites the stored balance. Only reconciliation uses it.
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	WithTx(tx pgx.Tx) Repository
}

// OwnerLocker serializes work on one owner's account set. Operations take the shared lock;
// reconciliation and migration take the exclusive one. Both are released at commit.
type OwnerLocker interface {
	LockShared(ctx context.Context, ownerID string) error
	LockExclusive(ctx context.Context, ownerID string) error
	WithTx(tx pgx.Tx) OwnerLocker
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

func (e ErrConcurrentModification) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	t, ok := target.(ErrConcurrentModification)
	return ok && (t.AccountID == uuid.Nil || t.AccountID == e.AccountID)
}

// ErrAccountNotFound indicates missing account, or one owned by somebody else
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

func (e ErrAccountNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	// If the target AccountID is empty, consider it a match for any ErrAccountNotFound
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrAccountInactive indicates an operation against a deactivated account
type ErrAccountInactive struct {
	AccountID uuid.UUID
}

func (e ErrAccountInactive) Error() string {
	return "account is inactive: " + e.AccountID.String()
}

func (e ErrAccountInactive) Is(target error) bool {
	if target == shared.ErrValidation {
		return true
	}
	t, ok := target.(ErrAccountInactive)
	return ok && (t.AccountID == uuid.Nil || t.AccountID == e.AccountID)
}

// ErrInsufficientFunds indicates a debit that would overdraw a regular account
type ErrInsufficientFunds struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Amount    decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds in account " + e.AccountID.String() +
		": balance " + e.Balance.StringFixed(2) + ", requested " + e.Amount.StringFixed(2)
}

func (e ErrInsufficientFunds) Is(target error) bool {
	if target == shared.ErrRejected {
		return true
	}
	t, ok := target.(ErrInsufficientFunds)
	return ok && (t.AccountID == uuid.Nil || t.AccountID == e.AccountID)
}

// ErrCreditLimitExceeded indicates a charge beyond a credit card's limit
type ErrCreditLimitExceeded struct {
	AccountID uuid.UUID
	Owed      decimal.Decimal
	Amount    decimal.Decimal
	Limit     decimal.Decimal
}

func (e ErrCreditLimitExceeded) Error() string {
	return "credit limit exceeded for account " + e.AccountID.String() +
		": owed " + e.Owed.StringFixed(2) + ", requested " + e.Amount.StringFixed(2) +
		", limit " + e.Limit.StringFixed(2)
}

func (e ErrCreditLimitExceeded) Is(target error) bool {
	if target == shared.ErrRejected {
		return true
	}
	t, ok := target.(ErrCreditLimitExceeded)
	return ok && (t.AccountID == uuid.Nil || t.AccountID == e.AccountID)
}

package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/shared"
)

// Filter narrows a transaction listing. Zero values mean "any".
// AccountID matches either side of a transfer.
type Filter struct {
	AccountID  *uuid.UUID
	CategoryID string
	Kind       Kind
	Emotion    Emotion
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Normalize clamps the page window to [1, maxSize] with defaultSize for an unset limit.
func (f Filter) Normalize(defaultSize, maxSize int) Filter {
	if f.Limit <= 0 {
		f.Limit = defaultSize
	}
	if f.Limit > maxSize {
		f.Limit = maxSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) Validate() error {
	if f.Kind != "" && !f.Kind.Valid() {
		return shared.NewValidationError("kind", "must be one of expense, income, transfer")
	}
	if f.Emotion != "" && !f.Emotion.Valid() {
		return shared.NewValidationError("emotion", "is not a known emotion")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return shared.NewValidationError("from", "must not be after to")
	}
	return nil
}

// Repository manages ledger transaction persistence. All reads are owner scoped.
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	// CreateIfAbsent skips the insert when the id or (owner, legacy_ref) already exists.
	CreateIfAbsent(ctx context.Context, txn *Transaction) (bool, error)
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*Transaction, error)
	// List orders by occurred_on desc, created_at desc.
	List(ctx context.Context, ownerID string, filter Filter) ([]*Transaction, error)
	Count(ctx context.Context, ownerID string, filter Filter) (int64, error)
	// History returns the complete ledger of the owner, unpaginated.
	History(ctx context.Context, ownerID string) ([]*Transaction, error)
	CountReferencing(ctx context.Context, ownerID string, accountID uuid.UUID) (int64, error)
	CountByCategory(ctx context.Context, ownerID, categoryID string) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing transaction, or one owned by somebody else
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

func (e ErrTransactionNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateTransaction indicates the id is already recorded for the owner
type ErrDuplicateTransaction struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return "transaction already exists: " + e.TransactionID.String()
}

func (e ErrDuplicateTransaction) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	_, ok := target.(ErrDuplicateTransaction)
	return ok
}

// Package legacy describes the flat per-user records kept by the previous storage layout
// and how they map onto accounts and transactions.
package legacy

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultAccountRef is the account id every legacy expense was booked against
const DefaultAccountRef = "conta_corrente"

// Account is a legacy account record. Balance is ignored on import; reconciliation recomputes it.
type Account struct {
	ID          string   `json:"id" bson:"id"`
	Name        string   `json:"name" bson:"name"`
	Type        string   `json:"type" bson:"type"`
	Icon        string   `json:"icon,omitempty" bson:"icon,omitempty"`
	Color       string   `json:"color,omitempty" bson:"color,omitempty"`
	Balance     float64  `json:"balance" bson:"balance"`
	CreditLimit *float64 `json:"creditLimit,omitempty" bson:"creditLimit,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty" bson:"isActive,omitempty"`
}

// Expense is an expense-only record from before accounts existed
type Expense struct {
	ID          string  `json:"id" bson:"id"`
	Amount      float64 `json:"amount" bson:"amount"`
	Description string  `json:"description" bson:"description"`
	Category    string  `json:"category,omitempty" bson:"category,omitempty"`
	Emotion     string  `json:"emotion,omitempty" bson:"emotion,omitempty"`
	Date        string  `json:"date" bson:"date"`
	CreatedAt   string  `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// Transaction is a loosely typed legacy transaction. Older records use
// account/targetAccount instead of accountId/targetAccountId.
type Transaction struct {
	ID              string  `json:"id" bson:"id"`
	Type            string  `json:"type" bson:"type"`
	AccountID       string  `json:"accountId,omitempty" bson:"accountId,omitempty"`
	Account         string  `json:"account,omitempty" bson:"account,omitempty"`
	TargetAccountID string  `json:"targetAccountId,omitempty" bson:"targetAccountId,omitempty"`
	TargetAccount   string  `json:"targetAccount,omitempty" bson:"targetAccount,omitempty"`
	Amount          float64 `json:"amount" bson:"amount"`
	Description     string  `json:"description" bson:"description"`
	Category        string  `json:"category,omitempty" bson:"category,omitempty"`
	Emotion         string  `json:"emotion,omitempty" bson:"emotion,omitempty"`
	Date            string  `json:"date" bson:"date"`
	CreatedAt       string  `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// SourceAccount returns the source account reference, preferring accountId
func (t Transaction) SourceAccount() string {
	if t.AccountID != "" {
		return t.AccountID
	}
	return t.Account
}

// DestinationAccount returns the transfer target reference, preferring targetAccountId
func (t Transaction) DestinationAccount() string {
	if t.TargetAccountID != "" {
		return t.TargetAccountID
	}
	return t.TargetAccount
}

// Snapshot is everything the legacy store holds for one owner
type Snapshot struct {
	OwnerID      string        `json:"owner_id" bson:"owner_id"`
	Accounts     []Account     `json:"accounts" bson:"accounts"`
	Expenses     []Expense     `json:"expenses" bson:"expenses"`
	Transactions []Transaction `json:"transactions" bson:"transactions"`
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.Accounts) == 0 && len(s.Expenses) == 0 && len(s.Transactions) == 0)
}

// Source reads legacy records
type Source interface {
	// Load returns an empty snapshot when the owner has no legacy records.
	Load(ctx context.Context, ownerID string) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// Marker records that an owner's legacy data has been imported
type Marker struct {
	OwnerID              string    `json:"owner_id"`
	MigratedAt           time.Time `json:"migrated_at"`
	AccountsImported     int       `json:"accounts_imported"`
	TransactionsImported int       `json:"transactions_imported"`
	RecordsSkipped       int       `json:"records_skipped"`
}

type MarkerRepository interface {
	// Get returns nil without error when the owner has not been migrated.
	Get(ctx context.Context, ownerID string) (*Marker, error)
	// Set fails with shared.ErrConflict when the owner is already marked.
	Set(ctx context.Context, marker *Marker) error
	WithTx(tx pgx.Tx) MarkerRepository
}

package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
)

// EventType classifies journal entries
type EventType string

const (
	EventTransactionCommitted EventType = "TRANSACTION_COMMITTED"
	EventBalancesReconciled   EventType = "BALANCES_RECONCILED"
	EventOperationRejected    EventType = "OPERATION_REJECTED"
)

// Entry is an audit record of something that happened to an owner's ledger.
// Identifiers and amounts are kept as strings so the document stays readable in the store.
type Entry struct {
	EventID        string                  `json:"event_id" bson:"event_id"`
	OwnerID        string                  `json:"owner_id" bson:"owner_id"`
	EventType      EventType               `json:"event_type" bson:"event_type"`
	Transaction    *TransactionSnapshot    `json:"transaction,omitempty" bson:"transaction,omitempty"`
	Reconciliation *ReconciliationSnapshot `json:"reconciliation,omitempty" bson:"reconciliation,omitempty"`
	RequestID      string                  `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Reason         shared.RejectionReason  `json:"reason,omitempty" bson:"reason,omitempty"`
	Detail         string                  `json:"detail,omitempty" bson:"detail,omitempty"`
	CorrelationID  string                  `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt      time.Time               `json:"created_at" bson:"created_at"`
	PublishedAt    *time.Time              `json:"published_at,omitempty" bson:"published_at,omitempty"`
}

type TransactionSnapshot struct {
	ID              string    `json:"id" bson:"id"`
	Kind            string    `json:"kind" bson:"kind"`
	AccountID       string    `json:"account_id" bson:"account_id"`
	TargetAccountID string    `json:"target_account_id,omitempty" bson:"target_account_id,omitempty"`
	Amount          string    `json:"amount" bson:"amount"`
	Description     string    `json:"description" bson:"description"`
	CategoryID      string    `json:"category_id,omitempty" bson:"category_id,omitempty"`
	Emotion         string    `json:"emotion,omitempty" bson:"emotion,omitempty"`
	OccurredOn      time.Time `json:"occurred_on" bson:"occurred_on"`
}

type ReconciliationSnapshot struct {
	AccountsChecked      int          `json:"accounts_checked" bson:"accounts_checked"`
	AccountsChanged      int          `json:"accounts_changed" bson:"accounts_changed"`
	OrphanedTransactions int          `json:"orphaned_transactions" bson:"orphaned_transactions"`
	Adjustments          []Adjustment `json:"adjustments,omitempty" bson:"adjustments,omitempty"`
}

type Adjustment struct {
	AccountID string `json:"account_id" bson:"account_id"`
	Before    string `json:"before" bson:"before"`
	After     string `json:"after" bson:"after"`
}

func newEntry(ownerID string, eventType EventType, correlationID string) *Entry {
	return &Entry{
		EventID:       uuid.New().String(),
		OwnerID:       ownerID,
		EventType:     eventType,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewCommittedEntry records a committed transaction
func NewCommittedEntry(txn *transaction.Transaction, correlationID string) *Entry {
	entry := newEntry(txn.OwnerID, EventTransactionCommitted, correlationID)
	entry.RequestID = txn.ID.String()
	entry.Transaction = Snapshot(txn)
	return entry
}

// NewReconciledEntry records a balance rebuild
func NewReconciledEntry(ownerID string, snapshot ReconciliationSnapshot, correlationID string) *Entry {
	entry := newEntry(ownerID, EventBalancesReconciled, correlationID)
	entry.Reconciliation = &snapshot
	return entry
}

// NewRejectedEntry records an asynchronous operation that was not applied.
// The event id derives from the request id, so a redelivered request is journaled once.
func NewRejectedEntry(req *transaction.OperationRequest, reason shared.RejectionReason, detail string) *Entry {
	entry := newEntry(req.OwnerID, EventOperationRejected, req.CorrelationID)
	entry.EventID = "rejected-" + req.RequestID.String()
	entry.RequestID = req.RequestID.String()
	entry.Reason = reason
	entry.Detail = detail
	entry.Transaction = &TransactionSnapshot{
		ID:          req.RequestID.String(),
		Kind:        string(req.Operation.Kind),
		AccountID:   req.Operation.AccountID.String(),
		Amount:      req.Operation.Amount.StringFixed(2),
		Description: req.Operation.Description,
		CategoryID:  req.Operation.CategoryID,
		Emotion:     string(req.Operation.Emotion),
		OccurredOn:  req.Operation.OccurredOn,
	}
	if req.Operation.TargetAccountID != nil {
		entry.Transaction.TargetAccountID = req.Operation.TargetAccountID.String()
	}
	return entry
}

func Snapshot(txn *transaction.Transaction) *TransactionSnapshot {
	s := &TransactionSnapshot{
		ID:          txn.ID.String(),
		Kind:        string(txn.Kind),
		AccountID:   txn.AccountID.String(),
		Amount:      txn.Amount.StringFixed(2),
		Description: txn.Description,
		CategoryID:  txn.CategoryID,
		Emotion:     string(txn.Emotion),
		OccurredOn:  txn.OccurredOn,
	}
	if txn.TargetAccountID != nil {
		s.TargetAccountID = txn.TargetAccountID.String()
	}
	return s
}

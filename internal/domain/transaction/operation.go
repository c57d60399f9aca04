package transaction

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Operation is an unapplied request to move money.
// RequestID is optional; when set it becomes the transaction id and makes the apply idempotent.
type Operation struct {
	RequestID       uuid.UUID       `json:"request_id"`
	Kind            Kind            `json:"kind"`
	AccountID       uuid.UUID       `json:"account_id"`
	TargetAccountID *uuid.UUID      `json:"target_account_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"category_id,omitempty"`
	Emotion         Emotion         `json:"emotion,omitempty"`
	OccurredOn      time.Time       `json:"occurred_on"`
}

// Validate checks the shape of the operation. Account existence and funds are checked at apply time.
func (op Operation) Validate() error {
	if !op.Kind.Valid() {
		return shared.NewValidationError("kind", "must be one of expense, income, transfer")
	}
	if op.AccountID == uuid.Nil {
		return shared.NewValidationError("account_id", "is required")
	}
	if !op.Amount.IsPositive() {
		return shared.NewValidationError("amount", "must be greater than 0")
	}
	if !op.Amount.Equal(op.Amount.Round(2)) {
		return shared.NewValidationError("amount", "must have at most 2 decimal places")
	}
	if strings.TrimSpace(op.Description) == "" {
		return shared.NewValidationError("description", "cannot be empty")
	}
	if op.Emotion != "" && !op.Emotion.Valid() {
		return shared.NewValidationError("emotion", "is not a known emotion")
	}

	if op.Kind == KindTransfer {
		if op.TargetAccountID == nil || *op.TargetAccountID == uuid.Nil {
			return shared.NewValidationError("target_account_id", "is required for transfers")
		}
		if *op.TargetAccountID == op.AccountID {
			return shared.NewValidationError("target_account_id", "must differ from account_id")
		}
	} else if op.TargetAccountID != nil {
		return shared.NewValidationError("target_account_id", "is only allowed for transfers")
	}
	return nil
}

// AccountIDs returns the accounts touched by the operation in ascending id order,
// which is the order their rows must be locked in.
func (op Operation) AccountIDs() []uuid.UUID {
	if op.TargetAccountID == nil {
		return []uuid.UUID{op.AccountID}
	}
	a, b := op.AccountID, *op.TargetAccountID
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return []uuid.UUID{a, b}
}

// NewTransaction validates op and builds the record to insert for ownerID.
func NewTransaction(ownerID string, op Operation) (*Transaction, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}

	id := op.RequestID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	occurredOn := op.OccurredOn
	if occurredOn.IsZero() {
		occurredOn = now
	}

	txn := &Transaction{
		ID:          id,
		OwnerID:     ownerID,
		Kind:        op.Kind,
		AccountID:   op.AccountID,
		Amount:      op.Amount,
		Description: strings.TrimSpace(op.Description),
		CategoryID:  op.CategoryID,
		Emotion:     op.Emotion,
		OccurredOn:  Date(occurredOn),
		CreatedAt:   now,
	}
	if op.TargetAccountID != nil {
		target := *op.TargetAccountID
		txn.TargetAccountID = &target
	}
	return txn, nil
}

// Matches reports whether t has the balance effect op asks for. A request id reused for
// a different kind, account pair or amount does not match.
func (t *Transaction) Matches(op Operation) bool {
	if t.Kind != op.Kind || t.AccountID != op.AccountID || !t.Amount.Equal(op.Amount) {
		return false
	}
	if t.TargetAccountID == nil || op.TargetAccountID == nil {
		return t.TargetAccountID == nil && op.TargetAccountID == nil
	}
	return *t.TargetAccountID == *op.TargetAccountID
}

// OperationRequest is the message published for asynchronous apply
type OperationRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	OwnerID       string    `json:"owner_id"`
	Operation     Operation `json:"operation"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewOperationRequest assigns a request id when the operation has none, so that
// redelivered messages apply at most once.
func NewOperationRequest(ownerID string, op Operation, correlationID string) (*OperationRequest, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if op.RequestID == uuid.Nil {
		op.RequestID = uuid.New()
	}
	return &OperationRequest{
		RequestID:     op.RequestID,
		OwnerID:       ownerID,
		Operation:     op,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}, nil
}

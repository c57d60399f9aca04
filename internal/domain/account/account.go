package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported account types
type Kind string

const (
	KindChecking   Kind = "checking"
	KindSavings    Kind = "savings"
	KindCash       Kind = "cash"
	KindCreditCard Kind = "credit_card"
	KindInvestment Kind = "investment"
	KindOther      Kind = "other"
)

const (
	DefaultIcon  = "💼"
	DefaultColor = "#2196F3"
)

// Kinds lists every known kind in display order.
var Kinds = []Kind{KindChecking, KindSavings, KindCash, KindCreditCard, KindInvestment, KindOther}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) IsCreditCard() bool {
	return k == KindCreditCard
}

// Account is a money container owned by exactly one user.
// For credit cards the balance is the net signed amount and a negative value is debt.
type Account struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Name        string           `json:"name"`
	Kind        Kind             `json:"kind"`
	Balance     decimal.Decimal  `json:"balance"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	Icon        string           `json:"icon"`
	Color       string           `json:"color"`
	IsActive    bool             `json:"is_active"`
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Spec carries the caller-controlled fields of a new account
type Spec struct {
	Name        string
	Kind        Kind
	CreditLimit *decimal.Decimal
	Icon        string
	Color       string
}

// Patch carries optional field changes. Balance is deliberately absent.
type Patch struct {
	Name        *string
	Kind        *Kind
	CreditLimit *decimal.Decimal
	Icon        *string
	Color       *string
}

// NewAccount validates the spec and returns an active account with a zero balance.
func NewAccount(ownerID string, spec Spec) (*Account, error) {
	return newAccount(uuid.New(), ownerID, spec)
}

// NewAccountWithID is NewAccount with a caller-chosen id, used for deterministic imports.
func NewAccountWithID(id uuid.UUID, ownerID string, spec Spec) (*Account, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	return newAccount(id, ownerID, spec)
}

func newAccount(id uuid.UUID, ownerID string, spec Spec) (*Account, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}
	name := strings.TrimSpace(spec.Name)
	if err := validateShape(name, spec.Kind, spec.CreditLimit); err != nil {
		return nil, err
	}

	icon := spec.Icon
	if icon == "" {
		icon = DefaultIcon
	}
	color := spec.Color
	if color == "" {
		color = DefaultColor
	}

	now := time.Now().UTC()
	return &Account{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		Kind:        spec.Kind,
		Balance:     decimal.Zero,
		CreditLimit: copyDecimal(spec.CreditLimit),
		Icon:        icon,
		Color:       color,
		IsActive:    true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyPatch updates the descriptive fields, re-checking the kind/limit rule on the result.
// The current balance must still hold under the new kind and limit: a card may not owe more
// than its limit, any other kind may not sit below -tolerance.
func (a *Account) ApplyPatch(patch Patch, tolerance decimal.Decimal) error {
	name := a.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
	}
	kind := a.Kind
	if patch.Kind != nil {
		kind = *patch.Kind
	}
	limit := a.CreditLimit
	if patch.CreditLimit != nil {
		limit = patch.CreditLimit
	}
	if !kind.IsCreditCard() && patch.CreditLimit == nil {
		// switching away from credit_card drops the limit
		limit = nil
	}

	if err := validateShape(name, kind, limit); err != nil {
		return err
	}
	if err := a.checkBalanceFits(kind, limit, tolerance); err != nil {
		return err
	}

	a.Name = name
	a.Kind = kind
	a.CreditLimit = copyDecimal(limit)
	if patch.Icon != nil {
		a.Icon = *patch.Icon
	}
	if patch.Color != nil {
		a.Color = *patch.Color
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Account) checkBalanceFits(kind Kind, limit *decimal.Decimal, tolerance decimal.Decimal) error {
	if kind.IsCreditCard() {
		if a.Balance.IsNegative() && a.Balance.Neg().GreaterThan(*limit) {
			return shared.ConflictError{
				Reason: "credit limit " + limit.StringFixed(2) + " is below the " + a.Balance.Neg().StringFixed(2) + " owed on account " + a.ID.String(),
			}
		}
		return nil
	}
	if a.Balance.LessThan(tolerance.Neg()) {
		return shared.ConflictError{
			Reason: "account " + a.ID.String() + " has balance " + a.Balance.StringFixed(2) + " and cannot become " + string(kind),
		}
	}
	return nil
}

// Deactivate hides the account from listings and totals.
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now().UTC()
}

// Owed returns the outstanding debt of a credit card, zero for anything else.
func (a *Account) Owed() decimal.Decimal {
	if !a.Kind.IsCreditCard() || !a.Balance.IsNegative() {
		return decimal.Zero
	}
	return a.Balance.Neg()
}

// AvailableCredit returns the remaining headroom of a credit card.
func (a *Account) AvailableCredit() decimal.Decimal {
	if !a.Kind.IsCreditCard() || a.CreditLimit == nil {
		return decimal.Zero
	}
	return a.CreditLimit.Sub(a.Owed())
}

// CheckDebit runs the funds check for taking amount out of the account.
// Credit cards may not end up owing more than their limit, so a positive balance adds headroom.
// Other kinds may not go below -tolerance.
func (a *Account) CheckDebit(amount, tolerance decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("amount", "must be greater than 0")
	}

	after := a.Balance.Sub(amount)
	if a.Kind.IsCreditCard() {
		if a.CreditLimit == nil || !a.CreditLimit.IsPositive() {
			return ErrCreditLimitExceeded{AccountID: a.ID, Owed: a.Owed(), Amount: amount, Limit: decimal.Zero}
		}
		if after.Neg().GreaterThan(*a.CreditLimit) {
			return ErrCreditLimitExceeded{AccountID: a.ID, Owed: a.Owed(), Amount: amount, Limit: *a.CreditLimit}
		}
		return nil
	}

	if after.LessThan(tolerance.Neg()) {
		return ErrInsufficientFunds{AccountID: a.ID, Balance: a.Balance, Amount: amount}
	}
	return nil
}

// DefaultSpecs is the starter set created for a new owner.
func DefaultSpecs(creditLimit decimal.Decimal) []Spec {
	limit := creditLimit
	return []Spec{
		{Name: "Checking", Kind: KindChecking, Icon: "🏦", Color: "#2196F3"},
		{Name: "Savings", Kind: KindSavings, Icon: "🐷", Color: "#4CAF50"},
		{Name: "Cash", Kind: KindCash, Icon: "💵", Color: "#FF9800"},
		{Name: "Credit Card", Kind: KindCreditCard, CreditLimit: &limit, Icon: "💳", Color: "#F44336"},
	}
}

func validateShape(name string, kind Kind, creditLimit *decimal.Decimal) error {
	if name == "" {
		return shared.NewValidationError("name", "cannot be empty")
	}
	if !kind.Valid() {
		return shared.NewValidationError("kind", "is not a known account kind")
	}
	if kind.IsCreditCard() {
		if creditLimit == nil || !creditLimit.IsPositive() {
			return shared.NewValidationError("credit_limit", "must be greater than 0 for credit cards")
		}
	} else if creditLimit != nil {
		return shared.NewValidationError("credit_limit", "is only allowed for credit cards")
	}
	return nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

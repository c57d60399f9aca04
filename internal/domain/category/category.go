package category

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/shared"
)

// Kind says which transaction kinds a category applies to
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
	KindBoth    Kind = "both"
)

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome || k == KindBoth
}

// System category ids, seeded by the schema migration
const (
	IDFood             = "food"
	IDTransport        = "transport"
	IDLeisure          = "leisure"
	IDHealth           = "health"
	IDEducation        = "education"
	IDClothing         = "clothing"
	IDHome             = "home"
	IDOther            = "other"
	IDSalary           = "salary"
	IDInvestmentIncome = "investment_income"
	IDOtherIncome      = "other_income"
)

const (
	DefaultIcon  = "📦"
	DefaultColor = "#666666"
)

type Category struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSystem reports whether the category is shared by every owner and read-only
func (c *Category) IsSystem() bool {
	return c.OwnerID == ""
}

// Matches reports whether the category can be listed under kind. Both-kinded categories match either.
func (c *Category) Matches(kind Kind) bool {
	return kind == "" || c.Kind == KindBoth || c.Kind == kind
}

type Spec struct {
	Name  string
	Kind  Kind
	Icon  string
	Color string
}

func (s Spec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewValidationError("name", "cannot be empty")
	}
	if !s.Kind.Valid() {
		return shared.NewValidationError("kind", "must be one of expense, income, both")
	}
	return nil
}

// NewCategory creates a user-owned category
func NewCategory(ownerID string, spec Spec) (*Category, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	c := &Category{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	c.apply(spec)
	return c, nil
}

// Update replaces the editable fields. System categories are read-only.
func (c *Category) Update(spec Spec) error {
	if c.IsSystem() {
		return shared.ForbiddenError{Reason: "system categories cannot be modified"}
	}
	if err := spec.validate(); err != nil {
		return err
	}
	c.apply(spec)
	return nil
}

func (c *Category) apply(spec Spec) {
	c.Name = strings.TrimSpace(spec.Name)
	c.Kind = spec.Kind
	c.Icon = spec.Icon
	if c.Icon == "" {
		c.Icon = DefaultIcon
	}
	c.Color = spec.Color
	if c.Color == "" {
		c.Color = DefaultColor
	}
}

// Repository reads system categories plus the caller's own
type Repository interface {
	// ListForOwner orders system categories first, then by name.
	ListForOwner(ctx context.Context, ownerID string, kind Kind) ([]*Category, error)
	// GetByID returns the category if it is a system category or owned by ownerID.
	GetByID(ctx context.Context, ownerID, id string) (*Category, error)
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, ownerID, id string) error
}

type ErrCategoryNotFound struct {
	CategoryID string
}

func (e ErrCategoryNotFound) Error() string {
	return "category not found: " + e.CategoryID
}

func (e ErrCategoryNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrCategoryNotFound)
	return ok && (t.CategoryID == "" || t.CategoryID == e.CategoryID)
}

// ErrDuplicateCategory indicates the owner already has a category with this name
type ErrDuplicateCategory struct {
	Name string
}

func (e ErrDuplicateCategory) Error() string {
	return "category already exists: " + e.Name
}

func (e ErrDuplicateCategory) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	_, ok := target.(ErrDuplicateCategory)
	return ok
}

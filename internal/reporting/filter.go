package reporting

import (
	"strings"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Criteria narrows a transaction set. Zero-valued fields do not filter.
type Criteria struct {
	Search     string
	CategoryID string
	Emotion    transaction.Emotion
	Kind       transaction.Kind
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	From       time.Time
	To         time.Time
}

// Filter returns the transactions matching every set criterion, in input order.
// Search is a case-insensitive substring match on the description.
func Filter(txns []*transaction.Transaction, c Criteria) []*transaction.Transaction {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	if !c.From.IsZero() || !c.To.IsZero() {
		txns = FilterByDateRange(txns, c.From, c.To)
	}

	out := make([]*transaction.Transaction, 0, len(txns))
	for _, t := range txns {
		if t == nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if c.CategoryID != "" && t.CategoryID != c.CategoryID {
			continue
		}
		if c.Emotion != "" && t.Emotion != c.Emotion {
			continue
		}
		if c.Kind != "" && t.Kind != c.Kind {
			continue
		}
		if c.MinAmount != nil && t.Amount.LessThan(*c.MinAmount) {
			continue
		}
		if c.MaxAmount != nil && t.Amount.GreaterThan(*c.MaxAmount) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Package reporting holds read-side computations over a caller-supplied set of transactions.
// Nothing here touches a store; callers pass the full ledger or an already filtered view.
package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Dimension is the grouping key of an aggregation
type Dimension string

const (
	ByCategory Dimension = "category"
	ByEmotion  Dimension = "emotion"
	ByMonth    Dimension = "month"
)

// NoneKey groups transactions without a category or emotion
const NoneKey = "none"

const monthLayout = "2006-01"

func ParseDimension(raw string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(raw))); d {
	case ByCategory, ByEmotion, ByMonth:
		return d, nil
	}
	return "", shared.NewValidationError("by", "must be one of category, emotion, month")
}

// Total is one group of an aggregation
type Total struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Aggregate sums amounts per group. Every transaction passed in is counted, so callers
// narrow by kind first when mixing income and expenses would be meaningless.
func Aggregate(txns []*transaction.Transaction, by Dimension) (map[string]decimal.Decimal, error) {
	var key func(*transaction.Transaction) string
	switch by {
	case ByCategory:
		key = categoryKey
	case ByEmotion:
		key = emotionKey
	case ByMonth:
		key = monthKey
	default:
		return nil, shared.NewValidationError("by", "unknown dimension "+string(by))
	}
	return sumBy(txns, key), nil
}

func TotalByCategory(txns []*transaction.Transaction) map[string]decimal.Decimal {
	return sumBy(txns, categoryKey)
}

func TotalByEmotion(txns []*transaction.Transaction) map[string]decimal.Decimal {
	return sumBy(txns, emotionKey)
}

// TotalByMonth keys totals by "YYYY-MM" of the occurrence date
func TotalByMonth(txns []*transaction.Transaction) map[string]decimal.Decimal {
	return sumBy(txns, monthKey)
}

// Totals is Aggregate as a slice ordered by amount descending, ties by key
func Totals(txns []*transaction.Transaction, by Dimension) ([]Total, error) {
	if _, err := Aggregate(nil, by); err != nil {
		return nil, err
	}

	groups := make(map[string]*Total)
	for _, t := range txns {
		if t == nil {
			continue
		}
		k := keyFor(by, t)
		g, ok := groups[k]
		if !ok {
			g = &Total{Key: k, Amount: decimal.Zero}
			groups[k] = g
		}
		g.Amount = g.Amount.Add(t.Amount)
		g.Count++
	}

	totals := make([]Total, 0, len(groups))
	for _, g := range groups {
		totals = append(totals, *g)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Amount.Cmp(totals[j].Amount); c != 0 {
			return c > 0
		}
		return totals[i].Key < totals[j].Key
	})
	return totals, nil
}

// FilterByDateRange keeps transactions that occurred within [from, to]. A zero bound is open.
func FilterByDateRange(txns []*transaction.Transaction, from, to time.Time) []*transaction.Transaction {
	if !from.IsZero() {
		from = transaction.Date(from)
	}
	if !to.IsZero() {
		to = transaction.Date(to)
	}

	out := make([]*transaction.Transaction, 0, len(txns))
	for _, t := range txns {
		if t == nil {
			continue
		}
		day := transaction.Date(t.OccurredOn)
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !to.IsZero() && day.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func FilterByMonth(txns []*transaction.Transaction, year int, month time.Month) []*transaction.Transaction {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return FilterByDateRange(txns, first, first.AddDate(0, 1, -1))
}

// MostRecent returns up to n transactions ordered by occurrence date then insertion time,
// newest first. The input is not reordered.
func MostRecent(txns []*transaction.Transaction, n int) []*transaction.Transaction {
	if n <= 0 {
		return []*transaction.Transaction{}
	}
	sorted := make([]*transaction.Transaction, 0, len(txns))
	for _, t := range txns {
		if t != nil {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.OccurredOn.Equal(b.OccurredOn) {
			return a.OccurredOn.After(b.OccurredOn)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// OfKind keeps transactions of the given kind
func OfKind(txns []*transaction.Transaction, kind transaction.Kind) []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0, len(txns))
	for _, t := range txns {
		if t != nil && t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Sum adds up the amounts of txns
func Sum(txns []*transaction.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t != nil {
			total = total.Add(t.Amount)
		}
	}
	return total
}

func sumBy(txns []*transaction.Transaction, key func(*transaction.Transaction) string) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if t == nil {
			continue
		}
		k := key(t)
		totals[k] = totals[k].Add(t.Amount)
	}
	return totals
}

func keyFor(by Dimension, t *transaction.Transaction) string {
	switch by {
	case ByEmotion:
		return emotionKey(t)
	case ByMonth:
		return monthKey(t)
	default:
		return categoryKey(t)
	}
}

func categoryKey(t *transaction.Transaction) string {
	if t.CategoryID == "" {
		return NoneKey
	}
	return t.CategoryID
}

func emotionKey(t *transaction.Transaction) string {
	if t.Emotion == "" {
		return NoneKey
	}
	return string(t.Emotion)
}

func monthKey(t *transaction.Transaction) string {
	return t.OccurredOn.UTC().Format(monthLayout)
}

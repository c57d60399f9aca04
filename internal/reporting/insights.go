package reporting

import (
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// MinExpensesForInsights is how many expenses an owner needs before insights are produced
const MinExpensesForInsights = 3

var impulsiveWarningPercent = decimal.NewFromInt(30)

// Share is a group's total and its percentage of all expenses
type Share struct {
	Key     string          `json:"key"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

type Insights struct {
	Ready            bool            `json:"ready"`
	ExpenseCount     int             `json:"expense_count"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	TopCategory      *Share          `json:"top_category,omitempty"`
	TopEmotion       *Share          `json:"top_emotion,omitempty"`
	ImpulsivePercent decimal.Decimal `json:"impulsive_percent"`
	ImpulsiveWarning bool            `json:"impulsive_warning"`
}

// Analyze derives spending insights from the expenses in txns. Below
// MinExpensesForInsights expenses only the count is filled in.
func Analyze(txns []*transaction.Transaction) Insights {
	expenses := OfKind(txns, transaction.KindExpense)
	insights := Insights{
		ExpenseCount:     len(expenses),
		TotalSpent:       decimal.Zero,
		ImpulsivePercent: decimal.Zero,
	}
	if len(expenses) < MinExpensesForInsights {
		return insights
	}

	total := Sum(expenses)
	insights.Ready = true
	insights.TotalSpent = total
	if !total.IsPositive() {
		return insights
	}

	byCategory, _ := Totals(expenses, ByCategory)
	insights.TopCategory = topShare(byCategory, total)

	// untagged expenses count toward the total but never win top emotion
	byEmotion, _ := Totals(expenses, ByEmotion)
	tagged := make([]Total, 0, len(byEmotion))
	for _, g := range byEmotion {
		if g.Key != NoneKey {
			tagged = append(tagged, g)
		}
	}
	insights.TopEmotion = topShare(tagged, total)

	impulsive := decimal.Zero
	for _, e := range expenses {
		if e.Emotion.IsImpulsive() {
			impulsive = impulsive.Add(e.Amount)
		}
	}
	insights.ImpulsivePercent = percent(impulsive, total)
	insights.ImpulsiveWarning = impulsive.Mul(decimal.NewFromInt(100)).GreaterThan(total.Mul(impulsiveWarningPercent))
	return insights
}

func topShare(totals []Total, total decimal.Decimal) *Share {
	if len(totals) == 0 {
		return nil
	}
	top := totals[0]
	return &Share{Key: top.Key, Amount: top.Amount, Percent: percent(top.Amount, total)}
}

func percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(total).Round(1)
}

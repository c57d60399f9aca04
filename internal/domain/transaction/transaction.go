package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind defines the supported ledger operations
type Kind string

const (
	KindExpense  Kind = "expense"
	KindIncome   Kind = "income"
	KindTransfer Kind = "transfer"
)

func (k Kind) Valid() bool {
	switch k {
	case KindExpense, KindIncome, KindTransfer:
		return true
	}
	return false
}

// Emotion is the mood tag recorded with a transaction. It has no effect on balances.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionStressed  Emotion = "stressed"
	EmotionAnxious   Emotion = "anxious"
	EmotionBored     Emotion = "bored"
	EmotionExcited   Emotion = "excited"
	EmotionCalm      Emotion = "calm"
	EmotionIrritated Emotion = "irritated"
)

var Emotions = []Emotion{
	EmotionHappy, EmotionSad, EmotionStressed, EmotionAnxious,
	EmotionBored, EmotionExcited, EmotionCalm, EmotionIrritated,
}

func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

// IsImpulsive reports whether spending under this mood is counted as impulsive in insights.
func (e Emotion) IsImpulsive() bool {
	switch e {
	case EmotionStressed, EmotionAnxious, EmotionSad, EmotionIrritated:
		return true
	}
	return false
}

// Transaction is a committed ledger record. Its balance effect never changes after commit.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Kind            Kind            `json:"kind"`
	AccountID       uuid.UUID       `json:"account_id"`
	TargetAccountID *uuid.UUID      `json:"target_account_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"category_id,omitempty"`
	Emotion         Emotion         `json:"emotion,omitempty"`
	OccurredOn      time.Time       `json:"occurred_on"`
	CreatedAt       time.Time       `json:"created_at"`
	LegacyRef       string          `json:"legacy_ref,omitempty"`
}

// Effect is the signed contribution of a transaction to one account balance
type Effect struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal
}

// Effects returns the balance contributions of the transaction.
// A transfer without a target yields only the source leg.
func (t *Transaction) Effects() []Effect {
	switch t.Kind {
	case KindExpense:
		return []Effect{{AccountID: t.AccountID, Delta: t.Amount.Neg()}}
	case KindIncome:
		return []Effect{{AccountID: t.AccountID, Delta: t.Amount}}
	case KindTransfer:
		effects := []Effect{{AccountID: t.AccountID, Delta: t.Amount.Neg()}}
		if t.TargetAccountID != nil {
			effects = append(effects, Effect{AccountID: *t.TargetAccountID, Delta: t.Amount})
		}
		return effects
	}
	return nil
}

// Replay sums the effects of txns per account. The result does not depend on the order of txns.
func Replay(txns []*Transaction) map[uuid.UUID]decimal.Decimal {
	balances := make(map[uuid.UUID]decimal.Decimal)
	for _, t := range txns {
		if t == nil {
			continue
		}
		for _, eff := range t.Effects() {
			balances[eff.AccountID] = balances[eff.AccountID].Add(eff.Delta)
		}
	}
	return balances
}

// References reports whether the transaction touches the given account
func (t *Transaction) References(accountID uuid.UUID) bool {
	if t.AccountID == accountID {
		return true
	}
	return t.TargetAccountID != nil && *t.TargetAccountID == accountID
}

// Date truncates t to its calendar day in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

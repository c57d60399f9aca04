package legacy

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// namespace for ids derived from legacy references
var namespace = uuid.MustParse("6f1c3a52-8d4e-4b7a-9f0e-2c5d8e1a7b34")

// AccountID derives a stable account id from the owner and the legacy account id
func AccountID(ownerID, legacyID string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(ownerID+"/account/"+legacyID))
}

// TransactionID derives a stable transaction id from the owner and a legacy reference
func TransactionID(ownerID, ref string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(ownerID+"/transaction/"+ref))
}

func ExpenseRef(legacyID string) string {
	return "migrated_expense_" + legacyID
}

func TransactionRef(legacyID string) string {
	return "migrated_transaction_" + legacyID
}

// defaultAccountKinds maps the ids of the legacy starter accounts to their kinds
var defaultAccountKinds = map[string]account.Kind{
	"conta_corrente": account.KindChecking,
	"poupanca":       account.KindSavings,
	"dinheiro":       account.KindCash,
	"cartao_credito": account.KindCreditCard,
}

// DefaultAccountRefs lists the legacy starter account ids in their original order
var DefaultAccountRefs = []string{"conta_corrente", "poupanca", "dinheiro", "cartao_credito"}

// DefaultAccountKind reports the kind of a legacy starter account reference
func DefaultAccountKind(ref string) (account.Kind, bool) {
	kind, ok := defaultAccountKinds[ref]
	return kind, ok
}

var accountKinds = map[string]account.Kind{
	"corrente":      account.KindChecking,
	"poupanca":      account.KindSavings,
	"dinheiro":      account.KindCash,
	"cartao":        account.KindCreditCard,
	"investimento":  account.KindInvestment,
	"investimentos": account.KindInvestment,
	"outro":         account.KindOther,
	"outros":        account.KindOther,
}

// MapAccountKind falls back to other for unknown types
func MapAccountKind(raw string) account.Kind {
	raw = normalize(raw)
	if kind := account.Kind(raw); kind.Valid() {
		return kind
	}
	if kind, ok := accountKinds[raw]; ok {
		return kind
	}
	return account.KindOther
}

var emotions = map[string]transaction.Emotion{
	"feliz":      transaction.EmotionHappy,
	"triste":     transaction.EmotionSad,
	"estressado": transaction.EmotionStressed,
	"ansioso":    transaction.EmotionAnxious,
	"entediado":  transaction.EmotionBored,
	"empolgado":  transaction.EmotionExcited,
	"calmo":      transaction.EmotionCalm,
	"irritado":   transaction.EmotionIrritated,
}

// MapEmotion returns the empty emotion for unknown labels
func MapEmotion(raw string) transaction.Emotion {
	raw = normalize(raw)
	if e := transaction.Emotion(raw); e.Valid() {
		return e
	}
	return emotions[raw]
}

var categories = map[string]string{
	"alimentacao":   category.IDFood,
	"transporte":    category.IDTransport,
	"lazer":         category.IDLeisure,
	"saude":         category.IDHealth,
	"educacao":      category.IDEducation,
	"roupas":        category.IDClothing,
	"casa":          category.IDHome,
	"outros":        category.IDOther,
	"salario":       category.IDSalary,
	"investimentos": category.IDInvestmentIncome,
}

var systemCategories = map[string]bool{
	category.IDFood: true, category.IDTransport: true, category.IDLeisure: true,
	category.IDHealth: true, category.IDEducation: true, category.IDClothing: true,
	category.IDHome: true, category.IDOther: true, category.IDSalary: true,
	category.IDInvestmentIncome: true, category.IDOtherIncome: true,
}

// MapCategory maps a legacy label onto a system category id. Unknown labels map to
// "other" for expenses and "other_income" for income; transfers carry no category.
func MapCategory(raw string, kind transaction.Kind) string {
	if kind == transaction.KindTransfer {
		return ""
	}
	raw = normalize(raw)
	if systemCategories[raw] {
		return raw
	}
	if id, ok := categories[raw]; ok {
		return id
	}
	if raw == "" {
		return ""
	}
	if kind == transaction.KindIncome {
		return category.IDOtherIncome
	}
	return category.IDOther
}

var transactionKinds = map[string]transaction.Kind{
	"despesa":       transaction.KindExpense,
	"receita":       transaction.KindIncome,
	"transferencia": transaction.KindTransfer,
}

func MapTransactionKind(raw string) (transaction.Kind, error) {
	raw = normalize(raw)
	if kind := transaction.Kind(raw); kind.Valid() {
		return kind, nil
	}
	if kind, ok := transactionKinds[raw]; ok {
		return kind, nil
	}
	return "", shared.NewValidationError("type", "unknown legacy transaction type "+raw)
}

// MapAmount rounds to cents and rejects non-positive values
func MapAmount(raw float64) (decimal.Decimal, error) {
	amount := decimal.NewFromFloat(raw).Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, shared.NewValidationError("amount", "must be greater than 0")
	}
	return amount, nil
}

// MapCreditLimit keeps a positive legacy limit and falls back to def otherwise
func MapCreditLimit(raw *float64, def decimal.Decimal) decimal.Decimal {
	if raw == nil || *raw <= 0 {
		return def
	}
	return decimal.NewFromFloat(*raw).Round(2)
}

var dateLayouts = []string{time.DateOnly, time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"}

// ParseDate accepts plain dates and ISO timestamps and returns the calendar day
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return transaction.Date(t), nil
		}
	}
	return time.Time{}, shared.NewValidationError("date", "unrecognized legacy date "+raw)
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

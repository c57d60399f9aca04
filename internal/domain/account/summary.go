package account

import "github.com/shopspring/decimal"

// Summary is the aggregate view over a set of accounts
type Summary struct {
	TotalAccounts   int                     `json:"total_accounts"`
	TotalBalance    decimal.Decimal         `json:"total_balance"`
	CreditDebt      decimal.Decimal         `json:"credit_debt"`
	CreditAvailable decimal.Decimal         `json:"credit_available"`
	AccountsByKind  map[Kind]int            `json:"accounts_by_kind"`
	BalanceByKind   map[Kind]decimal.Decimal `json:"balance_by_kind"`
}

// TotalBalance sums the balances of the active non-credit accounts.
func TotalBalance(accounts []*Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		if acc == nil || !acc.IsActive || acc.Kind.IsCreditCard() {
			continue
		}
		total = total.Add(acc.Balance)
	}
	return total
}

// TotalCreditDebt sums what is owed on active credit cards
func TotalCreditDebt(accounts []*Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		if acc == nil || !acc.IsActive {
			continue
		}
		total = total.Add(acc.Owed())
	}
	return total
}

func Summarize(accounts []*Account) Summary {
	s := Summary{
		TotalBalance:    decimal.Zero,
		CreditDebt:      decimal.Zero,
		CreditAvailable: decimal.Zero,
		AccountsByKind:  make(map[Kind]int),
		BalanceByKind:   make(map[Kind]decimal.Decimal),
	}
	for _, acc := range accounts {
		if acc == nil || !acc.IsActive {
			continue
		}
		s.TotalAccounts++
		if !acc.Kind.IsCreditCard() {
			s.TotalBalance = s.TotalBalance.Add(acc.Balance)
		}
		s.CreditDebt = s.CreditDebt.Add(acc.Owed())
		s.CreditAvailable = s.CreditAvailable.Add(acc.AvailableCredit())
		s.AccountsByKind[acc.Kind]++
		s.BalanceByKind[acc.Kind] = s.BalanceByKind[acc.Kind].Add(acc.Balance)
	}
	return s
}

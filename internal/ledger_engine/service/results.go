package service

import (
	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/shopspring/decimal"
)

type BalanceChange struct {
	AccountID uuid.UUID       `json:"account_id"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
}

func (c BalanceChange) Changed() bool {
	return !c.Before.Equal(c.After)
}

// ReconcileResult lists every account of the owner with its balance before and after the rebuild
type ReconcileResult struct {
	OwnerID              string          `json:"owner_id"`
	Accounts             []BalanceChange `json:"accounts"`
	AccountsChanged      int             `json:"accounts_changed"`
	OrphanedTransactions int             `json:"orphaned_transactions"`
}

func (r *ReconcileResult) snapshot() journal.ReconciliationSnapshot {
	s := journal.ReconciliationSnapshot{
		AccountsChecked:      len(r.Accounts),
		AccountsChanged:      r.AccountsChanged,
		OrphanedTransactions: r.OrphanedTransactions,
	}
	for _, c := range r.Accounts {
		if !c.Changed() {
			continue
		}
		s.Adjustments = append(s.Adjustments, journal.Adjustment{
			AccountID: c.AccountID.String(),
			Before:    c.Before.StringFixed(2),
			After:     c.After.StringFixed(2),
		})
	}
	return s
}

// IssueCode classifies an integrity finding
type IssueCode string

const (
	IssueDuplicateAccount      IssueCode = "DUPLICATE_ACCOUNT"
	IssueMissingOwner          IssueCode = "MISSING_OWNER"
	IssueMissingCreditLimit    IssueCode = "MISSING_CREDIT_LIMIT"
	IssueCreditLimitExceeded   IssueCode = "CREDIT_LIMIT_EXCEEDED"
	IssueNegativeBalance       IssueCode = "NEGATIVE_BALANCE"
	IssueUnknownAccount        IssueCode = "UNKNOWN_ACCOUNT"
	IssueUnknownTargetAccount  IssueCode = "UNKNOWN_TARGET_ACCOUNT"
	IssueTransferWithoutTarget IssueCode = "TRANSFER_WITHOUT_TARGET"
	IssueSelfTransfer          IssueCode = "SELF_TRANSFER"
	IssueBalanceDrift          IssueCode = "BALANCE_DRIFT"
)

type Issue struct {
	Code          IssueCode `json:"code"`
	AccountID     string    `json:"account_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Detail        string    `json:"detail"`
}

type IntegritySummary struct {
	TotalAccounts     int `json:"total_accounts"`
	TotalTransactions int `json:"total_transactions"`
	IssuesFound       int `json:"issues_found"`
}

type IntegrityReport struct {
	Valid   bool             `json:"valid"`
	Issues  []Issue          `json:"issues"`
	Summary IntegritySummary `json:"summary"`
}

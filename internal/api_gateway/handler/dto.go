package handler

import (
	"time"

	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

const dateLayout = time.DateOnly

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	Name        string           `json:"name" binding:"required"`
	Kind        string           `json:"kind" binding:"required"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Color       string           `json:"color,omitempty"`
}

// UpdateAccountRequest carries only the fields to change. Balance cannot be set.
type UpdateAccountRequest struct {
	Name        *string          `json:"name,omitempty"`
	Kind        *string          `json:"kind,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	Icon        *string          `json:"icon,omitempty"`
	Color       *string          `json:"color,omitempty"`
}

type AccountResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Kind            string  `json:"kind"`
	Balance         string  `json:"balance"`
	CreditLimit     *string `json:"credit_limit,omitempty"`
	AvailableCredit *string `json:"available_credit,omitempty"`
	Icon            string  `json:"icon"`
	Color           string  `json:"color"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// OperationRequest is the body of both the synchronous and the asynchronous apply endpoints
type OperationRequest struct {
	RequestID       string          `json:"request_id,omitempty" binding:"omitempty,uuid"`
	Kind            string          `json:"kind" binding:"required,oneof=expense income transfer"`
	AccountID       string          `json:"account_id" binding:"required,uuid"`
	TargetAccountID string          `json:"target_account_id,omitempty" binding:"omitempty,uuid"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" binding:"required"`
	CategoryID      string          `json:"category_id,omitempty"`
	Emotion         string          `json:"emotion,omitempty"`
	OccurredOn      string          `json:"occurred_on,omitempty"`
}

type TransactionResponse struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	AccountID       string  `json:"account_id"`
	TargetAccountID *string `json:"target_account_id,omitempty"`
	Amount          string  `json:"amount"`
	Description     string  `json:"description"`
	CategoryID      string  `json:"category_id,omitempty"`
	Emotion         string  `json:"emotion,omitempty"`
	OccurredOn      string  `json:"occurred_on"`
	CreatedAt       string  `json:"created_at"`
}

// TransactionQuery holds the filters of the transaction listing
type TransactionQuery struct {
	AccountID  string `form:"account_id" binding:"omitempty,uuid"`
	CategoryID string `form:"category_id"`
	Kind       string `form:"kind"`
	Emotion    string `form:"emotion"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// ReportQuery holds the grouping and the filters of the report endpoint
type ReportQuery struct {
	By         string `form:"by,default=category"`
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	Emotion    string `form:"emotion"`
	Kind       string `form:"kind,default=expense"`
	MinAmount  string `form:"min_amount"`
	MaxAmount  string `form:"max_amount"`
	From       string `form:"from"`
	To         string `form:"to"`
}

type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Kind  string `json:"kind" binding:"required,oneof=expense income both"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Kind:      string(acc.Kind),
		Balance:   acc.Balance.StringFixed(2),
		Icon:      acc.Icon,
		Color:     acc.Color,
		IsActive:  acc.IsActive,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.CreditLimit != nil {
		limit := acc.CreditLimit.StringFixed(2)
		available := acc.AvailableCredit().StringFixed(2)
		response.CreditLimit = &limit
		response.AvailableCredit = &available
	}
	return response
}

func mapAccountsToResponse(accounts []*account.Account) []AccountResponse {
	response := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, mapAccountToResponse(acc))
	}
	return response
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:          txn.ID.String(),
		Kind:        string(txn.Kind),
		AccountID:   txn.AccountID.String(),
		Amount:      txn.Amount.StringFixed(2),
		Description: txn.Description,
		CategoryID:  txn.CategoryID,
		Emotion:     string(txn.Emotion),
		OccurredOn:  txn.OccurredOn.Format(dateLayout),
		CreatedAt:   txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.TargetAccountID != nil {
		target := txn.TargetAccountID.String()
		response.TargetAccountID = &target
	}
	return response
}

func mapTransactionsToResponse(txns []*transaction.Transaction) []TransactionResponse {
	response := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		response = append(response, mapTransactionToResponse(txn))
	}
	return response
}

func (r CategoryRequest) spec() category.Spec {
	return category.Spec{Name: r.Name, Kind: category.Kind(r.Kind), Icon: r.Icon, Color: r.Color}
}

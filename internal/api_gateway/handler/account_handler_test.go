package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, spec account.Spec) *account.Account {
	acc, err := account.NewAccount(testOwner, spec)
	require.NoError(t, err)
	return acc
}

func TestAccountHandler_List(t *testing.T) {
	logger := newTestLogger()

	t.Run("active accounts", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		acc := newTestAccount(t, account.Spec{Name: "Checking", Kind: account.KindChecking})
		acc.Balance = decimal.RequireFromString("1200.5")
		svc.On("ListAccounts", mock.Anything, testOwner, false).Return([]*account.Account{acc}, nil)

		r := setupTestRouter(testOwner)
		r.GET("/accounts", h.List)
		w := doRequest(t, r, http.MethodGet, "/accounts", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var body []AccountResponse
		env := decode(t, w, &body)
		require.Len(t, body, 1)
		assert.Equal(t, "1200.50", body[0].Balance)
		assert.Nil(t, body[0].CreditLimit)
		assert.NotEmpty(t, env.CorrelationID)
		svc.AssertExpectations(t)
	})

	t.Run("include inactive", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		svc.On("ListAccounts", mock.Anything, testOwner, true).Return([]*account.Account{}, nil)

		r := setupTestRouter(testOwner)
		r.GET("/accounts", h.List)
		w := doRequest(t, r, http.MethodGet, "/accounts?include_inactive=true", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad flag", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)

		r := setupTestRouter(testOwner)
		r.GET("/accounts", h.List)
		w := doRequest(t, r, http.MethodGet, "/accounts?include_inactive=maybe", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ListAccounts", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)

		r := setupTestRouter("")
		r.GET("/accounts", h.List)
		w := doRequest(t, r, http.MethodGet, "/accounts", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		svc.On("ListAccounts", mock.Anything, testOwner, false).
			Return(nil, shared.NewStorageError("list accounts", errors.New("connection refused")))

		r := setupTestRouter(testOwner)
		r.GET("/accounts", h.List)
		w := doRequest(t, r, http.MethodGet, "/accounts", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decode(t, w, nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestAccountHandler_Create(t *testing.T) {
	logger := newTestLogger()

	t.Run("credit card", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		limit := decimal.NewFromInt(1500)
		created := newTestAccount(t, account.Spec{Name: "Visa", Kind: account.KindCreditCard, CreditLimit: &limit})

		svc.On("CreateAccount", mock.Anything, testOwner, mock.MatchedBy(func(spec account.Spec) bool {
			return spec.Name == "Visa" && spec.Kind == account.KindCreditCard &&
				spec.CreditLimit != nil && spec.CreditLimit.Equal(limit)
		})).Return(created, nil)

		r := setupTestRouter(testOwner)
		r.POST("/accounts", h.Create)
		w := doRequest(t, r, http.MethodPost, "/accounts", `{"name":"Visa","kind":"credit_card","credit_limit":"1500"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var body AccountResponse
		decode(t, w, &body)
		assert.Equal(t, created.ID.String(), body.ID)
		assert.Equal(t, "0.00", body.Balance)
		require.NotNil(t, body.CreditLimit)
		assert.Equal(t, "1500.00", *body.CreditLimit)
		require.NotNil(t, body.AvailableCredit)
		assert.Equal(t, "1500.00", *body.AvailableCredit)
		svc.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)

		r := setupTestRouter(testOwner)
		r.POST("/accounts", h.Create)
		w := doRequest(t, r, http.MethodPost, "/accounts", `{"kind":"cash"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("domain validation", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		svc.On("CreateAccount", mock.Anything, testOwner, mock.Anything).
			Return(nil, shared.NewValidationError("credit_limit", "is required for credit cards"))

		r := setupTestRouter(testOwner)
		r.POST("/accounts", h.Create)
		w := doRequest(t, r, http.MethodPost, "/accounts", `{"name":"Visa","kind":"credit_card"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w, nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}

func TestAccountHandler_GetByID(t *testing.T) {
	logger := newTestLogger()

	tests := []struct {
		name       string
		path       func(id uuid.UUID) string
		setup      func(svc *MockAccountService, acc *account.Account)
		wantStatus int
	}{
		{
			name: "found",
			path: func(id uuid.UUID) string { return "/accounts/" + id.String() },
			setup: func(svc *MockAccountService, acc *account.Account) {
				svc.On("GetAccount", mock.Anything, testOwner, acc.ID).Return(acc, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: func(id uuid.UUID) string { return "/accounts/" + id.String() },
			setup: func(svc *MockAccountService, acc *account.Account) {
				svc.On("GetAccount", mock.Anything, testOwner, acc.ID).Return(nil, account.ErrAccountNotFound{AccountID: acc.ID})
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			path:       func(uuid.UUID) string { return "/accounts/not-a-uuid" },
			setup:      func(*MockAccountService, *account.Account) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAccountService)
			h := NewAccountHandler(logger, svc)
			acc := newTestAccount(t, account.Spec{Name: "Cash", Kind: account.KindCash})
			tt.setup(svc, acc)

			r := setupTestRouter(testOwner)
			r.GET("/accounts/:id", h.GetByID)
			w := doRequest(t, r, http.MethodGet, tt.path(acc.ID), nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAccountHandler_Update(t *testing.T) {
	logger := newTestLogger()
	svc := new(MockAccountService)
	h := NewAccountHandler(logger, svc)
	acc := newTestAccount(t, account.Spec{Name: "Everyday", Kind: account.KindSavings})

	svc.On("UpdateAccount", mock.Anything, testOwner, acc.ID, mock.MatchedBy(func(p account.Patch) bool {
		return p.Name != nil && *p.Name == "Everyday" && p.Kind != nil && *p.Kind == account.KindSavings && p.Icon == nil
	})).Return(acc, nil)

	r := setupTestRouter(testOwner)
	r.PATCH("/accounts/:id", h.Update)
	w := doRequest(t, r, http.MethodPatch, "/accounts/"+acc.ID.String(), `{"name":"Everyday","kind":"savings"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body AccountResponse
	decode(t, w, &body)
	assert.Equal(t, "savings", body.Kind)
	svc.AssertExpectations(t)
}

func TestAccountHandler_Deactivate(t *testing.T) {
	logger := newTestLogger()

	t.Run("referenced", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		id := uuid.New()
		svc.On("DeactivateAccount", mock.Anything, testOwner, id).
			Return(nil, shared.ConflictError{Reason: "account is referenced by 2 transactions"})

		r := setupTestRouter(testOwner)
		r.DELETE("/accounts/:id", h.Deactivate)
		w := doRequest(t, r, http.MethodDelete, "/accounts/"+id.String(), nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("deactivated", func(t *testing.T) {
		svc := new(MockAccountService)
		h := NewAccountHandler(logger, svc)
		acc := newTestAccount(t, account.Spec{Name: "Old", Kind: account.KindCash})
		acc.Deactivate()
		svc.On("DeactivateAccount", mock.Anything, testOwner, acc.ID).Return(acc, nil)

		r := setupTestRouter(testOwner)
		r.DELETE("/accounts/:id", h.Deactivate)
		w := doRequest(t, r, http.MethodDelete, "/accounts/"+acc.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var body AccountResponse
		decode(t, w, &body)
		assert.False(t, body.IsActive)
	})
}

func TestAccountHandler_SummaryAndDefaults(t *testing.T) {
	logger := newTestLogger()
	svc := new(MockAccountService)
	h := NewAccountHandler(logger, svc)

	summary := account.Summary{TotalAccounts: 4, TotalBalance: decimal.NewFromInt(100)}
	svc.On("Summary", mock.Anything, testOwner).Return(summary, nil)
	defaults := []*account.Account{newTestAccount(t, account.Spec{Name: "Cash", Kind: account.KindCash})}
	svc.On("EnsureDefaultAccounts", mock.Anything, testOwner).Return(defaults, nil)

	r := setupTestRouter(testOwner)
	r.GET("/accounts/summary", h.Summary)
	r.POST("/accounts/defaults", h.EnsureDefaults)

	w := doRequest(t, r, http.MethodGet, "/accounts/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_accounts":4`)

	w = doRequest(t, r, http.MethodPost, "/accounts/defaults", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var body []AccountResponse
	decode(t, w, &body)
	assert.Len(t, body, 1)
	svc.AssertExpectations(t)
}

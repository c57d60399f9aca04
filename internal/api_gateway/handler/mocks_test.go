package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/api_gateway/middleware"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	ledger "github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/migration"
	"github.com/mindful-finance-ledger/internal/reporting"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testOwner = "user-1"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupTestRouter stands in for the auth middleware; an empty owner leaves the request anonymous
func setupTestRouter(owner string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(func(c *gin.Context) {
		if owner != "" {
			c.Set(middleware.OwnerIDKey, owner)
		}
		c.Next()
	})
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return doRequestWithHeader(t, r, method, path, body, "", "")
}

func doRequestWithHeader(t *testing.T, r http.Handler, method, path string, body interface{}, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data          json.RawMessage `json:"data"`
	Error         *ErrorInfo      `json:"error"`
	CorrelationID string          `json:"correlation_id"`
	Meta          *MetaInfo       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) EnsureDefaultAccounts(ctx context.Context, ownerID string) ([]*account.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error) {
	args := m.Called(ctx, ownerID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, ownerID string, spec account.Spec) (*account.Account, error) {
	args := m.Called(ctx, ownerID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, ownerID string, id uuid.UUID, patch account.Patch) (*account.Account, error) {
	args := m.Called(ctx, ownerID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) Summary(ctx context.Context, ownerID string) (account.Summary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(account.Summary), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Apply(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) Submit(ctx context.Context, ownerID string, op transaction.Operation, correlationID string) (*transaction.OperationRequest, error) {
	args := m.Called(ctx, ownerID, op, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.OperationRequest), args.Error(1)
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, ownerID string, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) ListTransactions(ctx context.Context, ownerID string, filter transaction.Filter) ([]*transaction.Transaction, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*transaction.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) ListCategories(ctx context.Context, ownerID string, kind category.Kind) ([]*category.Category, error) {
	args := m.Called(ctx, ownerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*category.Category), args.Error(1)
}

func (m *MockCategoryService) CreateCategory(ctx context.Context, ownerID string, spec category.Spec) (*category.Category, error) {
	args := m.Called(ctx, ownerID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, ownerID, id string, spec category.Spec) (*category.Category, error) {
	args := m.Called(ctx, ownerID, id, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *MockCategoryService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Dashboard(ctx context.Context, ownerID string, recent int) (*service.Dashboard, error) {
	args := m.Called(ctx, ownerID, recent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}

func (m *MockDashboardService) Report(ctx context.Context, ownerID string, by reporting.Dimension, criteria reporting.Criteria) ([]reporting.Total, error) {
	args := m.Called(ctx, ownerID, by, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reporting.Total), args.Error(1)
}

func (m *MockDashboardService) Insights(ctx context.Context, ownerID string) (reporting.Insights, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(reporting.Insights), args.Error(1)
}

type MockMaintenanceService struct {
	mock.Mock
}

func (m *MockMaintenanceService) Reconcile(ctx context.Context, ownerID string) (*ledger.ReconcileResult, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ReconcileResult), args.Error(1)
}

func (m *MockMaintenanceService) ValidateIntegrity(ctx context.Context, ownerID string) (*ledger.IntegrityReport, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.IntegrityReport), args.Error(1)
}

func (m *MockMaintenanceService) MigrateLegacy(ctx context.Context, ownerID string) (*migration.Result, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*migration.Result), args.Error(1)
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) ListEntries(ctx context.Context, ownerID string, eventType journal.EventType, page, perPage int) ([]*journal.Entry, int64, error) {
	args := m.Called(ctx, ownerID, eventType, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*journal.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockJournalService) ListEntriesBetween(ctx context.Context, ownerID string, from, to time.Time, page, perPage int) ([]*journal.Entry, error) {
	args := m.Called(ctx, ownerID, from, to, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

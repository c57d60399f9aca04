package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/reporting"
)

const (
	defaultRecent = 5
	maxRecent     = 50
)

type DashboardResponse struct {
	Summary       account.Summary       `json:"summary"`
	Accounts      []AccountResponse     `json:"accounts"`
	Month         string                `json:"month"`
	MonthExpenses string                `json:"month_expenses"`
	MonthIncome   string                `json:"month_income"`
	TopCategory   *reporting.Total      `json:"top_category,omitempty"`
	TopEmotion    *reporting.Total      `json:"top_emotion,omitempty"`
	Recent        []TransactionResponse `json:"recent"`
}

// DashboardHandler serves the read-only views derived from accounts and the ledger
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *slog.Logger
}

func NewDashboardHandler(logger *slog.Logger, dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Dashboard returns the landing view; ?recent= sets how many recent transactions to include
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	recent := defaultRecent
	if raw := c.Query("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxRecent {
			RespondBadRequest(c, "recent must be between 0 and "+strconv.Itoa(maxRecent))
			return
		}
		recent = n
	}

	d, err := h.dashboardService.Dashboard(c.Request.Context(), owner, recent)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, DashboardResponse{
		Summary:       d.Summary,
		Accounts:      mapAccountsToResponse(d.Accounts),
		Month:         d.Month,
		MonthExpenses: d.MonthExpenses.StringFixed(2),
		MonthIncome:   d.MonthIncome.StringFixed(2),
		TopCategory:   d.TopCategory,
		TopEmotion:    d.TopEmotion,
		Recent:        mapTransactionsToResponse(d.Recent),
	})
}

// Report groups the filtered transactions by category, emotion or month
func (h *DashboardHandler) Report(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var query ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	by, err := reporting.ParseDimension(query.By)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	criteria, err := query.criteria()
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	totals, err := h.dashboardService.Report(c.Request.Context(), owner, by, criteria)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, totals)
}

// Insights returns the spending-behaviour analysis of the owner's expenses
func (h *DashboardHandler) Insights(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	insights, err := h.dashboardService.Insights(c.Request.Context(), owner)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, insights)
}

func (q ReportQuery) criteria() (reporting.Criteria, error) {
	criteria := reporting.Criteria{
		Search:     q.Search,
		CategoryID: q.CategoryID,
		Emotion:    transaction.Emotion(q.Emotion),
	}
	if q.Kind != "all" {
		criteria.Kind = transaction.Kind(q.Kind)
	}

	var err error
	if criteria.MinAmount, err = parseOptionalDecimal("min_amount", q.MinAmount); err != nil {
		return criteria, err
	}
	if criteria.MaxAmount, err = parseOptionalDecimal("max_amount", q.MaxAmount); err != nil {
		return criteria, err
	}
	if criteria.From, err = optionalDate("from", q.From); err != nil {
		return criteria, err
	}
	if criteria.To, err = optionalDate("to", q.To); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func optionalDate(field, raw string) (time.Time, error) {
	d, err := parseOptionalDate(field, raw)
	if err != nil || d == nil {
		return time.Time{}, err
	}
	return *d, nil
}

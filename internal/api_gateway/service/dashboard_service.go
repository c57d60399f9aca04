package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/reporting"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the landing view of an owner
type Dashboard struct {
	Summary       account.Summary            `json:"summary"`
	Accounts      []*account.Account         `json:"accounts"`
	Month         string                     `json:"month"`
	MonthExpenses decimal.Decimal            `json:"month_expenses"`
	MonthIncome   decimal.Decimal            `json:"month_income"`
	TopCategory   *reporting.Total           `json:"top_category,omitempty"`
	TopEmotion    *reporting.Total           `json:"top_emotion,omitempty"`
	Recent        []*transaction.Transaction `json:"recent"`
}

type DashboardServiceImpl struct {
	accounts     AccountService
	transactions transaction.Repository
	now          func() time.Time
	logger       *slog.Logger
}

func NewDashboardService(logger *slog.Logger, accounts AccountService, transactions transaction.Repository) *DashboardServiceImpl {
	return &DashboardServiceImpl{
		accounts:     accounts,
		transactions: transactions,
		now:          time.Now,
		logger:       logger,
	}
}

// Dashboard loads accounts and history concurrently, then derives the current-month figures.
func (s *DashboardServiceImpl) Dashboard(ctx context.Context, ownerID string, recent int) (*Dashboard, error) {
	var (
		accounts []*account.Account
		history  []*transaction.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.ListAccounts(gctx, ownerID, false)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.history(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard", "owner_id", ownerID, "error", err)
		return nil, err
	}

	now := s.now().UTC()
	month := reporting.FilterByMonth(history, now.Year(), now.Month())
	expenses := reporting.OfKind(month, transaction.KindExpense)

	d := &Dashboard{
		Summary:       account.Summarize(accounts),
		Accounts:      accounts,
		Month:         now.Format("2006-01"),
		MonthExpenses: reporting.Sum(expenses),
		MonthIncome:   reporting.Sum(reporting.OfKind(month, transaction.KindIncome)),
		Recent:        reporting.MostRecent(history, recent),
	}
	if byCategory, _ := reporting.Totals(expenses, reporting.ByCategory); len(byCategory) > 0 {
		d.TopCategory = &byCategory[0]
	}
	if byEmotion, _ := reporting.Totals(expenses, reporting.ByEmotion); len(byEmotion) > 0 {
		for i := range byEmotion {
			if byEmotion[i].Key != reporting.NoneKey {
				d.TopEmotion = &byEmotion[i]
				break
			}
		}
	}
	return d, nil
}

// Report groups the owner's transactions matching criteria
func (s *DashboardServiceImpl) Report(ctx context.Context, ownerID string, by reporting.Dimension, criteria reporting.Criteria) ([]reporting.Total, error) {
	history, err := s.history(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return reporting.Totals(reporting.Filter(history, criteria), by)
}

func (s *DashboardServiceImpl) Insights(ctx context.Context, ownerID string) (reporting.Insights, error) {
	history, err := s.history(ctx, ownerID)
	if err != nil {
		return reporting.Insights{}, err
	}
	return reporting.Analyze(history), nil
}

func (s *DashboardServiceImpl) history(ctx context.Context, ownerID string) ([]*transaction.Transaction, error) {
	history, err := s.transactions.History(ctx, ownerID)
	if err != nil {
		return nil, shared.WrapStorage("load history", err)
	}
	return history, nil
}

package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/components"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

type engineFixture struct {
	store      *mocks.MemoryStore
	categories *mocks.CategoryRepository
	engine     *service.LedgerEngine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		store:      mocks.NewMemoryStore(),
		categories: &mocks.CategoryRepository{},
	}
	cfg := config.LedgerConfig{
		DefaultCreditLimit: decimal.NewFromInt(1000),
		BalanceTolerance:   decimal.RequireFromString("0.01"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.engine = components.CreateEngine(f.store, components.Repositories{
		Accounts:     f.store.Accounts,
		Transactions: f.store.Transactions,
		Categories:   f.categories,
		Outbox:       f.store.Outbox,
		Locker:       f.store.Locker,
	}, cfg, logger)
	return f
}

func (f *engineFixture) account(t *testing.T, ownerID string, kind account.Kind, balance string, limit string) *account.Account {
	spec := account.Spec{Name: string(kind), Kind: kind}
	if limit != "" {
		l := decimal.RequireFromString(limit)
		spec.CreditLimit = &l
	}
	acc, err := account.NewAccount(ownerID, spec)
	require.NoError(t, err)
	acc.Balance = decimal.RequireFromString(balance)
	f.store.Put(acc)
	return acc
}

func (f *engineFixture) balance(id uuid.UUID) string {
	return f.store.Balance(id).StringFixed(2)
}

func expense(accountID uuid.UUID, amount string) transaction.Operation {
	return transaction.Operation{
		Kind:        transaction.KindExpense,
		AccountID:   accountID,
		Amount:      decimal.RequireFromString(amount),
		Description: "groceries",
	}
}

func income(accountID uuid.UUID, amount string) transaction.Operation {
	return transaction.Operation{
		Kind:        transaction.KindIncome,
		AccountID:   accountID,
		Amount:      decimal.RequireFromString(amount),
		Description: "salary",
	}
}

func transfer(from, to uuid.UUID, amount string) transaction.Operation {
	return transaction.Operation{
		Kind:            transaction.KindTransfer,
		AccountID:       from,
		TargetAccountID: &to,
		Amount:          decimal.RequireFromString(amount),
		Description:     "move",
	}
}

func TestApply_ExpenseAndIncome(t *testing.T) {
	ctx := shared.WithCorrelationID(context.Background(), "corr-1")
	f := newEngineFixture()
	checking := f.account(t, owner, account.KindChecking, "100.00", "")

	txn, err := f.engine.Apply(ctx, owner, expense(checking.ID, "40.25"))
	require.NoError(t, err)
	assert.Equal(t, transaction.KindExpense, txn.Kind)
	assert.Equal(t, "59.75", f.balance(checking.ID))

	_, err = f.engine.Apply(ctx, owner, income(checking.ID, "1000"))
	require.NoError(t, err)
	assert.Equal(t, "1059.75", f.balance(checking.ID))
	assert.Equal(t, 2, f.store.TransactionCount())

	messages := f.store.OutboxMessages()
	require.Len(t, messages, 2)
	entry, err := messages[0].JournalEntry()
	require.NoError(t, err)
	assert.Equal(t, journal.EventTransactionCommitted, entry.EventType)
	assert.Equal(t, txn.ID.String(), entry.Transaction.ID)
	assert.Equal(t, "corr-1", entry.CorrelationID)
	assert.Equal(t, shared.OutboxStatusPending, messages[0].Status)
	assert.Equal(t, 2, f.store.Locker.Shared)
}

func TestApply_Transfer(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	a := f.account(t, owner, account.KindChecking, "100", "")
	b := f.account(t, owner, account.KindSavings, "0", "")

	txn, err := f.engine.Apply(ctx, owner, transfer(a.ID, b.ID, "30"))
	require.NoError(t, err)
	assert.Equal(t, "70.00", f.balance(a.ID))
	assert.Equal(t, "30.00", f.balance(b.ID))
	assert.Equal(t, 1, f.store.TransactionCount())
	require.NotNil(t, txn.TargetAccountID)
	assert.Equal(t, b.ID, *txn.TargetAccountID)
}

func TestApply_TransferIsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient source", func(t *testing.T) {
		f := newEngineFixture()
		a := f.account(t, owner, account.KindChecking, "10", "")
		b := f.account(t, owner, account.KindSavings, "5", "")

		_, err := f.engine.Apply(ctx, owner, transfer(a.ID, b.ID, "30"))
		assert.ErrorIs(t, err, account.ErrInsufficientFunds{AccountID: a.ID})
		assert.ErrorIs(t, err, shared.ErrRejected)
		assert.Equal(t, "10.00", f.balance(a.ID))
		assert.Equal(t, "5.00", f.balance(b.ID))
		assert.Zero(t, f.store.TransactionCount())
		assert.Empty(t, f.store.OutboxMessages())
	})

	t.Run("inactive target", func(t *testing.T) {
		f := newEngineFixture()
		a := f.account(t, owner, account.KindChecking, "100", "")
		b := f.account(t, owner, account.KindSavings, "0", "")
		b.Deactivate()
		f.store.Put(b)

		_, err := f.engine.Apply(ctx, owner, transfer(a.ID, b.ID, "30"))
		assert.ErrorIs(t, err, account.ErrAccountInactive{AccountID: b.ID})
		assert.Equal(t, "100.00", f.balance(a.ID))
		assert.Zero(t, f.store.TransactionCount())
	})

	t.Run("same account", func(t *testing.T) {
		f := newEngineFixture()
		a := f.account(t, owner, account.KindChecking, "100", "")

		_, err := f.engine.Apply(ctx, owner, transfer(a.ID, a.ID, "30"))
		assert.ErrorIs(t, err, shared.ValidationError{Field: "target_account_id"})
	})
}

func TestApply_CreditCardLimit(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	card := f.account(t, owner, account.KindCreditCard, "0", "500")

	_, err := f.engine.Apply(ctx, owner, expense(card.ID, "450"))
	require.NoError(t, err)
	assert.Equal(t, "-450.00", f.balance(card.ID))

	_, err = f.engine.Apply(ctx, owner, expense(card.ID, "100"))
	assert.ErrorIs(t, err, account.ErrCreditLimitExceeded{AccountID: card.ID})
	assert.Equal(t, "-450.00", f.balance(card.ID))
	assert.Equal(t, 1, f.store.TransactionCount())

	// paying the card down is an income on it
	_, err = f.engine.Apply(ctx, owner, income(card.ID, "200"))
	require.NoError(t, err)
	_, err = f.engine.Apply(ctx, owner, expense(card.ID, "100"))
	require.NoError(t, err)
	assert.Equal(t, "-350.00", f.balance(card.ID))
}

func TestApply_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		balance string
		amount  string
		wantErr bool
	}{
		{name: "rejects overdraft", balance: "20", amount: "25", wantErr: true},
		{name: "allows exact balance", balance: "20", amount: "20"},
		{name: "allows rounding slack", balance: "10", amount: "10.01"},
		{name: "rejects beyond slack", balance: "10", amount: "10.02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture()
			cash := f.account(t, owner, account.KindCash, tt.balance, "")

			_, err := f.engine.Apply(ctx, owner, expense(cash.ID, tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, account.ErrInsufficientFunds{})
				assert.Equal(t, decimal.RequireFromString(tt.balance).StringFixed(2), f.balance(cash.ID))
				return
			}
			require.NoError(t, err)
			want := decimal.RequireFromString(tt.balance).Sub(decimal.RequireFromString(tt.amount))
			assert.Equal(t, want.StringFixed(2), f.balance(cash.ID))
		})
	}
}

func TestApply_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	foreign := f.account(t, "user-2", account.KindChecking, "100", "")

	_, err := f.engine.Apply(ctx, owner, expense(foreign.ID, "10"))
	assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: foreign.ID})
	assert.Equal(t, "100.00", f.balance(foreign.ID))

	_, err = f.engine.Apply(ctx, owner, expense(uuid.New(), "10"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApply_IdempotentRequestID(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	checking := f.account(t, owner, account.KindChecking, "100", "")

	op := expense(checking.ID, "10")
	op.RequestID = uuid.New()

	first, err := f.engine.Apply(ctx, owner, op)
	require.NoError(t, err)
	assert.Equal(t, op.RequestID, first.ID)

	second, err := f.engine.Apply(ctx, owner, op)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "90.00", f.balance(checking.ID))
	assert.Equal(t, 1, f.store.TransactionCount())
	assert.Len(t, f.store.OutboxMessages(), 1)
}

func TestApply_RequestIDReusedForDifferentOperation(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	checking := f.account(t, owner, account.KindChecking, "100", "")
	savings := f.account(t, owner, account.KindSavings, "0", "")

	op := expense(checking.ID, "10")
	op.RequestID = uuid.New()
	_, err := f.engine.Apply(ctx, owner, op)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(op *transaction.Operation)
	}{
		{"different amount", func(op *transaction.Operation) { op.Amount = decimal.NewFromInt(25) }},
		{"different account", func(op *transaction.Operation) { op.AccountID = savings.ID }},
		{"different kind", func(op *transaction.Operation) { op.Kind = transaction.KindIncome }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reused := op
			tt.mutate(&reused)

			_, err := f.engine.Apply(ctx, owner, reused)
			assert.ErrorIs(t, err, shared.ErrConflict)
			assert.Equal(t, "90.00", f.balance(checking.ID))
			assert.Equal(t, "0.00", f.balance(savings.ID))
			assert.Equal(t, 1, f.store.TransactionCount())
		})
	}
}

func TestApply_Category(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	checking := f.account(t, owner, account.KindChecking, "100", "")

	f.categories.On("GetByID", ctx, owner, "food").
		Return(&category.Category{ID: "food", Name: "Food", Kind: category.KindExpense}, nil)
	f.categories.On("GetByID", ctx, owner, "nope").
		Return(nil, category.ErrCategoryNotFound{CategoryID: "nope"})

	op := expense(checking.ID, "10")
	op.CategoryID = "food"
	op.Emotion = transaction.EmotionStressed
	txn, err := f.engine.Apply(ctx, owner, op)
	require.NoError(t, err)
	assert.Equal(t, "food", txn.CategoryID)
	assert.Equal(t, transaction.EmotionStressed, txn.Emotion)

	op.CategoryID = "nope"
	_, err = f.engine.Apply(ctx, owner, op)
	assert.ErrorIs(t, err, shared.ValidationError{Field: "category_id"})

	inc := income(checking.ID, "10")
	inc.CategoryID = "food"
	_, err = f.engine.Apply(ctx, owner, inc)
	assert.ErrorIs(t, err, shared.ValidationError{Field: "category_id"})
	assert.Equal(t, "90.00", f.balance(checking.ID))
}

func TestApply_StorageFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := &mocks.TxRunner{BeginErr: errors.New("connection refused")}
	accounts := &mocks.AccountRepository{}
	engine := components.CreateEngine(db, components.Repositories{
		Accounts:     accounts,
		Transactions: &mocks.TransactionRepository{},
		Categories:   &mocks.CategoryRepository{},
		Outbox:       &mocks.OutboxRepository{},
		Locker:       &mocks.OwnerLocker{},
	}, config.LedgerConfig{BalanceTolerance: decimal.RequireFromString("0.01")}, logger)

	_, err := engine.Apply(context.Background(), owner, expense(uuid.New(), "10"))
	assert.ErrorIs(t, err, shared.ErrStorage)
	assert.False(t, shared.IsDomainError(err))
	accounts.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
}

func TestApply_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	cash := f.account(t, owner, account.KindCash, "10", "")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		applied  int
		rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Apply(ctx, owner, expense(cash.ID, "1"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				applied++
			} else if errors.Is(err, account.ErrInsufficientFunds{}) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, applied)
	assert.Equal(t, 10, rejected)
	assert.Equal(t, "0.00", f.balance(cash.ID))
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	a := f.account(t, owner, account.KindChecking, "999", "")
	b := f.account(t, owner, account.KindSavings, "30", "")
	card := f.account(t, owner, account.KindCreditCard, "0", "1000")
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, txn := range []*transaction.Transaction{
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindIncome, AccountID: a.ID, Amount: decimal.NewFromInt(100), OccurredOn: day},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindTransfer, AccountID: a.ID, TargetAccountID: &b.ID, Amount: decimal.NewFromInt(30), OccurredOn: day},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindExpense, AccountID: card.ID, Amount: decimal.NewFromInt(45), OccurredOn: day},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindExpense, AccountID: uuid.New(), Amount: decimal.NewFromInt(5), OccurredOn: day},
	} {
		f.store.PutTransaction(txn)
	}

	result, err := f.engine.Reconcile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "70.00", f.balance(a.ID))
	assert.Equal(t, "30.00", f.balance(b.ID))
	assert.Equal(t, "-45.00", f.balance(card.ID))
	assert.Equal(t, 2, result.AccountsChanged)
	assert.Equal(t, 1, result.OrphanedTransactions)
	assert.Len(t, result.Accounts, 3)
	assert.Equal(t, 1, f.store.Locker.Exclusive)

	messages := f.store.OutboxMessages()
	require.Len(t, messages, 1)
	entry, err := messages[0].JournalEntry()
	require.NoError(t, err)
	assert.Equal(t, journal.EventBalancesReconciled, entry.EventType)
	assert.Len(t, entry.Reconciliation.Adjustments, 2)

	again, err := f.engine.Reconcile(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, again.AccountsChanged)
	assert.Equal(t, "70.00", f.balance(a.ID))
}

func TestReconcile_MissingOwner(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.Reconcile(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestValidateIntegrity(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent ledger", func(t *testing.T) {
		f := newEngineFixture()
		a := f.account(t, owner, account.KindChecking, "0", "")
		_, err := f.engine.Apply(ctx, owner, income(a.ID, "50"))
		require.NoError(t, err)

		report, err := f.engine.ValidateIntegrity(ctx, owner)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Empty(t, report.Issues)
		assert.Equal(t, 1, report.Summary.TotalAccounts)
		assert.Equal(t, 1, report.Summary.TotalTransactions)
	})

	t.Run("drift is reported and left alone", func(t *testing.T) {
		f := newEngineFixture()
		a := f.account(t, owner, account.KindChecking, "80", "")
		f.store.PutTransaction(&transaction.Transaction{
			ID: uuid.New(), OwnerID: owner, Kind: transaction.KindIncome, AccountID: a.ID, Amount: decimal.NewFromInt(50),
		})

		report, err := f.engine.ValidateIntegrity(ctx, owner)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, service.IssueBalanceDrift, report.Issues[0].Code)
		assert.Equal(t, "80.00", f.balance(a.ID))
	})
}

func TestCheckIntegrity(t *testing.T) {
	tolerance := decimal.RequireFromString("0.01")
	limit := decimal.NewFromInt(100)

	overdrawn := &account.Account{ID: uuid.New(), OwnerID: owner, Kind: account.KindCash, Balance: decimal.NewFromInt(-5), IsActive: true}
	noLimit := &account.Account{ID: uuid.New(), OwnerID: owner, Kind: account.KindCreditCard, IsActive: true}
	overLimit := &account.Account{ID: uuid.New(), OwnerID: owner, Kind: account.KindCreditCard, Balance: decimal.NewFromInt(-150), CreditLimit: &limit, IsActive: true}
	orphanOwner := &account.Account{ID: uuid.New(), Kind: account.KindSavings, IsActive: true}

	unknown := uuid.New()
	history := []*transaction.Transaction{
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindExpense, AccountID: overdrawn.ID, Amount: decimal.NewFromInt(5)},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindExpense, AccountID: overLimit.ID, Amount: decimal.NewFromInt(150)},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindTransfer, AccountID: orphanOwner.ID},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindTransfer, AccountID: orphanOwner.ID, TargetAccountID: &orphanOwner.ID},
		{ID: uuid.New(), OwnerID: owner, Kind: transaction.KindIncome, AccountID: unknown, TargetAccountID: &unknown, Amount: decimal.NewFromInt(1)},
	}

	report := service.CheckIntegrity([]*account.Account{overdrawn, noLimit, overLimit, orphanOwner, overdrawn}, history, tolerance)
	assert.False(t, report.Valid)

	codes := map[service.IssueCode]int{}
	for _, issue := range report.Issues {
		codes[issue.Code]++
	}
	assert.Equal(t, 1, codes[service.IssueDuplicateAccount])
	assert.Equal(t, 1, codes[service.IssueMissingOwner])
	assert.Equal(t, 1, codes[service.IssueMissingCreditLimit])
	assert.Equal(t, 1, codes[service.IssueCreditLimitExceeded])
	assert.Equal(t, 1, codes[service.IssueNegativeBalance])
	assert.Equal(t, 1, codes[service.IssueUnknownAccount])
	assert.Equal(t, 1, codes[service.IssueUnknownTargetAccount])
	assert.Equal(t, 1, codes[service.IssueTransferWithoutTarget])
	assert.Equal(t, 1, codes[service.IssueSelfTransfer])
	assert.Zero(t, codes[service.IssueBalanceDrift])
	assert.Equal(t, 5, report.Summary.TotalAccounts)
	assert.Equal(t, len(report.Issues), report.Summary.IssuesFound)
}

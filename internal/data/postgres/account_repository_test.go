package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var accountColumnNames = []string{"id", "owner_id", "name", "kind", "balance", "credit_limit", "icon", "color", "is_active", "version", "created_at", "updated_at"}

func testAccount(kind account.Kind) *account.Account {
	now := time.Now().UTC()
	acc := &account.Account{
		ID:        uuid.New(),
		OwnerID:   "user-1",
		Name:      "Wallet",
		Kind:      kind,
		Balance:   decimal.RequireFromString("120.50"),
		Icon:      "💵",
		Color:     "#FF9800",
		IsActive:  true,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind.IsCreditCard() {
		limit := decimal.NewFromInt(1000)
		acc.CreditLimit = &limit
	}
	return acc
}

func accountRow(acc *account.Account) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumnNames).AddRow(
		acc.ID, acc.OwnerID, acc.Name, string(acc.Kind), acc.Balance, nullDecimal(acc.CreditLimit),
		acc.Icon, acc.Color, acc.IsActive, acc.Version, acc.CreatedAt, acc.UpdatedAt,
	)
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	acc := testAccount(account.KindCreditCard)

	query := regexp.QuoteMeta(`INSERT INTO accounts (id, owner_id, name, kind, balance, credit_limit, icon, color, is_active, version, created_at, updated_at)`)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.OwnerID, acc.Name, "credit_card", acc.Balance, nullDecimal(acc.CreditLimit),
				acc.Icon, acc.Color, true, 3, acc.CreatedAt, acc.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, acc))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		err := repo.Create(ctx, acc)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create account")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	acc := testAccount(account.KindCash)
	query := regexp.QuoteMeta(`ON CONFLICT (id) DO NOTHING`)

	mock.ExpectExec(query).WithArgs(acc.ID, acc.OwnerID, acc.Name, "cash", acc.Balance, decimal.NullDecimal{},
		acc.Icon, acc.Color, true, 3, acc.CreatedAt, acc.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	created, err := repo.CreateIfAbsent(ctx, acc)
	require.NoError(t, err)
	assert.True(t, created)

	mock.ExpectExec(query).WithArgs(acc.ID, acc.OwnerID, acc.Name, "cash", acc.Balance, decimal.NullDecimal{},
		acc.Icon, acc.Color, true, 3, acc.CreatedAt, acc.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	created, err = repo.CreateIfAbsent(ctx, acc)
	require.NoError(t, err)
	assert.False(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	expected := testAccount(account.KindCreditCard)
	query := regexp.QuoteMeta(`FROM accounts WHERE id = $1`)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnRows(accountRow(expected))

		acc, err := repo.GetByID(ctx, expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, acc.ID)
		assert.Equal(t, account.KindCreditCard, acc.Kind)
		assert.True(t, acc.Balance.Equal(expected.Balance))
		require.NotNil(t, acc.CreditLimit)
		assert.True(t, acc.CreditLimit.Equal(decimal.NewFromInt(1000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without credit limit", func(t *testing.T) {
		cash := testAccount(account.KindCash)
		mock.ExpectQuery(query).WithArgs(cash.ID).WillReturnRows(accountRow(cash))

		acc, err := repo.GetByID(ctx, cash.ID)
		require.NoError(t, err)
		assert.Nil(t, acc.CreditLimit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.GetByID(ctx, expected.ID)
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: expected.ID})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnError(dbErr)

		acc, err := repo.GetByID(ctx, expected.ID)
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to get account")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_ListByOwner(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	first := testAccount(account.KindChecking)
	second := testAccount(account.KindCreditCard)
	query := regexp.QuoteMeta(`WHERE owner_id = $1 AND ($2 OR is_active) ORDER BY name, created_at`)

	rows := pgxmock.NewRows(accountColumnNames).
		AddRow(first.ID, first.OwnerID, first.Name, string(first.Kind), first.Balance, decimal.NullDecimal{},
			first.Icon, first.Color, true, 1, first.CreatedAt, first.UpdatedAt).
		AddRow(second.ID, second.OwnerID, second.Name, string(second.Kind), second.Balance, nullDecimal(second.CreditLimit),
			second.Icon, second.Color, true, 1, second.CreatedAt, second.UpdatedAt)
	mock.ExpectQuery(query).WithArgs("user-1", false).WillReturnRows(rows)

	accounts, err := repo.ListByOwner(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first.ID, accounts[0].ID)
	assert.Nil(t, accounts[0].CreditLimit)
	assert.NotNil(t, accounts[1].CreditLimit)

	mock.ExpectQuery(query).WithArgs("user-2", true).WillReturnRows(pgxmock.NewRows(accountColumnNames))
	accounts, err = repo.ListByOwner(ctx, "user-2", true)
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateDetails(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	query := regexp.QuoteMeta(`WHERE id = $8 AND version = $9`)

	t.Run("success bumps version", func(t *testing.T) {
		acc := testAccount(account.KindSavings)
		mock.ExpectExec(query).
			WithArgs(acc.Name, "savings", decimal.NullDecimal{}, acc.Icon, acc.Color, true, pgxmock.AnyArg(), acc.ID, 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateDetails(ctx, acc))
		assert.Equal(t, 4, acc.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		acc := testAccount(account.KindSavings)
		mock.ExpectExec(query).
			WithArgs(acc.Name, "savings", decimal.NullDecimal{}, acc.Icon, acc.Color, true, pgxmock.AnyArg(), acc.ID, 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateDetails(ctx, acc)
		assert.ErrorIs(t, err, account.ErrConcurrentModification{AccountID: acc.ID})
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, 3, acc.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	acc := testAccount(account.KindChecking)
	query := regexp.QuoteMeta(`FROM accounts WHERE id = $1 FOR UPDATE`)

	mock.ExpectBegin()
	mock.ExpectQuery(query).WithArgs(acc.ID).WillReturnRows(accountRow(acc))
	mock.ExpectQuery(query).WithArgs(acc.ID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	txRepo := repo.WithTx(tx)

	locked, err := txRepo.LockForUpdate(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, locked.ID)

	_, err = txRepo.LockForUpdate(ctx, acc.ID)
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()
	delta := decimal.RequireFromString("-45.10")
	query := regexp.QuoteMeta(`SET balance = balance + $1, version = version + 1, updated_at = NOW() WHERE id = $2 RETURNING balance`)

	t.Run("returns new balance", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(delta, id).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(decimal.RequireFromString("54.90")))

		balance, err := repo.ApplyDelta(ctx, id, delta)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.RequireFromString("54.90")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(delta, id).WillReturnError(pgx.ErrNoRows)

		_, err := repo.ApplyDelta(ctx, id, delta)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: id})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_SetBalance(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()
	balance := decimal.RequireFromString("10.00")
	query := regexp.QuoteMeta(`SET balance = $1, version = version + 1, updated_at = NOW() WHERE id = $2`)

	mock.ExpectExec(query).WithArgs(balance, id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.SetBalance(ctx, id, balance))

	mock.ExpectExec(query).WithArgs(balance, id).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.SetBalance(ctx, id, balance), account.ErrAccountNotFound{})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_WithTx(t *testing.T) {
	repo := &AccountRepository{querier: nil, logger: slog.Default()}

	txRepo := repo.WithTx(pgx.Tx(nil))
	accountRepo, ok := txRepo.(*AccountRepository)
	require.True(t, ok)
	assert.Equal(t, repo.logger, accountRepo.logger)
	assert.NotSame(t, repo, accountRepo)
}

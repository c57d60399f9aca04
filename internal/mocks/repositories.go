// Package mocks provides testify mocks of the repository interfaces. WithTx returns the
// receiver so expectations set on a mock also cover its transaction-bound copies.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/category"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/legacy"
	"github.com/mindful-finance-ledger/internal/domain/outbox"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// TxRunner calls fn with a nil transaction and returns its error
type TxRunner struct {
	BeginErr error
	Calls    int
}

func (r *TxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.Calls++
	if r.BeginErr != nil {
		return r.BeginErr
	}
	return fn(nil)
}

type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *AccountRepository) CreateIfAbsent(ctx context.Context, acc *account.Account) (bool, error) {
	args := m.Called(ctx, acc)
	return args.Bool(0), args.Error(1)
}

func (m *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *AccountRepository) ListByOwner(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error) {
	args := m.Called(ctx, ownerID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *AccountRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AccountRepository) UpdateDetails(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *AccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *AccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type OwnerLocker struct {
	mock.Mock
}

func (m *OwnerLocker) LockShared(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *OwnerLocker) LockExclusive(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *OwnerLocker) WithTx(tx pgx.Tx) account.OwnerLocker {
	return m
}

type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *TransactionRepository) CreateIfAbsent(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *TransactionRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *TransactionRepository) List(ctx context.Context, ownerID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *TransactionRepository) Count(ctx context.Context, ownerID string, filter transaction.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TransactionRepository) History(ctx context.Context, ownerID string) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *TransactionRepository) CountReferencing(ctx context.Context, ownerID string, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TransactionRepository) CountByCategory(ctx context.Context, ownerID, categoryID string) (int64, error) {
	args := m.Called(ctx, ownerID, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *OutboxRepository) GetByEventID(ctx context.Context, eventID string) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *OutboxRepository) CountByStatus(ctx context.Context, status shared.OutboxStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type CategoryRepository struct {
	mock.Mock
}

func (m *CategoryRepository) ListForOwner(ctx context.Context, ownerID string, kind category.Kind) ([]*category.Category, error) {
	args := m.Called(ctx, ownerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*category.Category), args.Error(1)
}

func (m *CategoryRepository) GetByID(ctx context.Context, ownerID, id string) (*category.Category, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CategoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

type JournalRepository struct {
	mock.Mock
}

func (m *JournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *JournalRepository) GetByEventID(ctx context.Context, eventID string) (*journal.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *JournalRepository) ListByOwner(ctx context.Context, ownerID string, eventType journal.EventType, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, ownerID, eventType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *JournalRepository) CountByOwner(ctx context.Context, ownerID string, eventType journal.EventType) (int64, error) {
	args := m.Called(ctx, ownerID, eventType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *JournalRepository) GetByTimeRange(ctx context.Context, ownerID string, startTime, endTime time.Time, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, ownerID, startTime, endTime, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

type LegacySource struct {
	mock.Mock
}

func (m *LegacySource) Load(ctx context.Context, ownerID string) (*legacy.Snapshot, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*legacy.Snapshot), args.Error(1)
}

func (m *LegacySource) Save(ctx context.Context, snapshot *legacy.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

type MarkerRepository struct {
	mock.Mock
}

func (m *MarkerRepository) Get(ctx context.Context, ownerID string) (*legacy.Marker, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*legacy.Marker), args.Error(1)
}

func (m *MarkerRepository) Set(ctx context.Context, marker *legacy.Marker) error {
	args := m.Called(ctx, marker)
	return args.Error(0)
}

func (m *MarkerRepository) WithTx(tx pgx.Tx) legacy.MarkerRepository {
	return m
}

package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/outbox"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory ledger store. ExecuteTx runs one transaction at a time and
// restores the previous state when fn fails, which is enough to observe all-or-nothing commits.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
	txns     []*transaction.Transaction
	outbox   []*outbox.Message
	nextID   int64

	Accounts     *MemoryAccounts
	Transactions *MemoryTransactions
	Outbox       *MemoryOutbox
	Locker       *MemoryLocker
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{accounts: make(map[uuid.UUID]*account.Account)}
	s.Accounts = &MemoryAccounts{s: s}
	s.Transactions = &MemoryTransactions{s: s}
	s.Outbox = &MemoryOutbox{s: s}
	s.Locker = &MemoryLocker{}
	return s
}

func (s *MemoryStore) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make(map[uuid.UUID]*account.Account, len(s.accounts))
	for id, acc := range s.accounts {
		accounts[id] = copyAccount(acc)
	}
	txns := append([]*transaction.Transaction(nil), s.txns...)
	messages := append([]*outbox.Message(nil), s.outbox...)

	if err := fn(nil); err != nil {
		s.accounts, s.txns, s.outbox = accounts, txns, messages
		return err
	}
	return nil
}

// Put stores acc as is, balance included. Test setup only.
func (s *MemoryStore) Put(acc *account.Account) {
	s.accounts[acc.ID] = copyAccount(acc)
}

// PutTransaction records txn without touching balances. Test setup only.
func (s *MemoryStore) PutTransaction(txn *transaction.Transaction) {
	s.txns = append(s.txns, txn)
}

func (s *MemoryStore) Balance(id uuid.UUID) decimal.Decimal {
	acc, ok := s.accounts[id]
	if !ok {
		return decimal.Zero
	}
	return acc.Balance
}

func (s *MemoryStore) TransactionCount() int {
	return len(s.txns)
}

func (s *MemoryStore) OutboxMessages() []*outbox.Message {
	return append([]*outbox.Message(nil), s.outbox...)
}

func copyAccount(acc *account.Account) *account.Account {
	c := *acc
	if acc.CreditLimit != nil {
		limit := *acc.CreditLimit
		c.CreditLimit = &limit
	}
	return &c
}

type MemoryAccounts struct{ s *MemoryStore }

func (r *MemoryAccounts) Create(ctx context.Context, acc *account.Account) error {
	if _, ok := r.s.accounts[acc.ID]; ok {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	r.s.accounts[acc.ID] = copyAccount(acc)
	return nil
}

func (r *MemoryAccounts) CreateIfAbsent(ctx context.Context, acc *account.Account) (bool, error) {
	if _, ok := r.s.accounts[acc.ID]; ok {
		return false, nil
	}
	r.s.accounts[acc.ID] = copyAccount(acc)
	return true, nil
}

func (r *MemoryAccounts) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return copyAccount(acc), nil
}

func (r *MemoryAccounts) ListByOwner(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error) {
	accounts := make([]*account.Account, 0)
	for _, acc := range r.s.accounts {
		if acc.OwnerID == ownerID && (includeInactive || acc.IsActive) {
			accounts = append(accounts, copyAccount(acc))
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name == accounts[j].Name {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].Name < accounts[j].Name
	})
	return accounts, nil
}

func (r *MemoryAccounts) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	for _, acc := range r.s.accounts {
		if acc.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryAccounts) UpdateDetails(ctx context.Context, acc *account.Account) error {
	stored, ok := r.s.accounts[acc.ID]
	if !ok || stored.Version != acc.Version {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	updated := copyAccount(acc)
	updated.Balance = stored.Balance
	updated.Version++
	r.s.accounts[acc.ID] = updated
	acc.Version = updated.Version
	return nil
}

func (r *MemoryAccounts) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryAccounts) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	acc, ok := r.s.accounts[id]
	if !ok {
		return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.Version++
	return acc.Balance, nil
}

func (r *MemoryAccounts) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	acc, ok := r.s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.Balance = balance
	acc.Version++
	return nil
}

func (r *MemoryAccounts) WithTx(tx pgx.Tx) account.Repository {
	return r
}

type MemoryTransactions struct{ s *MemoryStore }

func (r *MemoryTransactions) find(ownerID string, id uuid.UUID) *transaction.Transaction {
	for _, txn := range r.s.txns {
		if txn.ID == id && txn.OwnerID == ownerID {
			return txn
		}
	}
	return nil
}

func (r *MemoryTransactions) exists(txn *transaction.Transaction) bool {
	for _, existing := range r.s.txns {
		if existing.ID == txn.ID {
			return true
		}
		if txn.LegacyRef != "" && existing.OwnerID == txn.OwnerID && existing.LegacyRef == txn.LegacyRef {
			return true
		}
	}
	return false
}

func (r *MemoryTransactions) Create(ctx context.Context, txn *transaction.Transaction) error {
	if r.exists(txn) {
		return transaction.ErrDuplicateTransaction{TransactionID: txn.ID}
	}
	r.s.txns = append(r.s.txns, txn)
	return nil
}

func (r *MemoryTransactions) CreateIfAbsent(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	if r.exists(txn) {
		return false, nil
	}
	r.s.txns = append(r.s.txns, txn)
	return true, nil
}

func (r *MemoryTransactions) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*transaction.Transaction, error) {
	if txn := r.find(ownerID, id); txn != nil {
		return txn, nil
	}
	return nil, transaction.ErrTransactionNotFound{TransactionID: id}
}

func (r *MemoryTransactions) matching(ownerID string, f transaction.Filter) []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0)
	for _, txn := range r.s.txns {
		if txn.OwnerID != ownerID {
			continue
		}
		if f.AccountID != nil && !txn.References(*f.AccountID) {
			continue
		}
		if f.CategoryID != "" && txn.CategoryID != f.CategoryID {
			continue
		}
		if f.Kind != "" && txn.Kind != f.Kind {
			continue
		}
		if f.Emotion != "" && txn.Emotion != f.Emotion {
			continue
		}
		if f.From != nil && txn.OccurredOn.Before(transaction.Date(*f.From)) {
			continue
		}
		if f.To != nil && txn.OccurredOn.After(transaction.Date(*f.To)) {
			continue
		}
		out = append(out, txn)
	}
	return out
}

func (r *MemoryTransactions) List(ctx context.Context, ownerID string, filter transaction.Filter) ([]*transaction.Transaction, error) {
	out := r.matching(ownerID, filter)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OccurredOn.After(out[j].OccurredOn)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*transaction.Transaction{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryTransactions) Count(ctx context.Context, ownerID string, filter transaction.Filter) (int64, error) {
	return int64(len(r.matching(ownerID, filter))), nil
}

func (r *MemoryTransactions) History(ctx context.Context, ownerID string) ([]*transaction.Transaction, error) {
	return r.matching(ownerID, transaction.Filter{}), nil
}

func (r *MemoryTransactions) CountReferencing(ctx context.Context, ownerID string, accountID uuid.UUID) (int64, error) {
	return int64(len(r.matching(ownerID, transaction.Filter{AccountID: &accountID}))), nil
}

func (r *MemoryTransactions) CountByCategory(ctx context.Context, ownerID, categoryID string) (int64, error) {
	return int64(len(r.matching(ownerID, transaction.Filter{CategoryID: categoryID}))), nil
}

func (r *MemoryTransactions) WithTx(tx pgx.Tx) transaction.Repository {
	return r
}

type MemoryOutbox struct{ s *MemoryStore }

func (r *MemoryOutbox) Create(ctx context.Context, message *outbox.Message) error {
	r.s.nextID++
	message.ID = r.s.nextID
	r.s.outbox = append(r.s.outbox, message)
	return nil
}

func (r *MemoryOutbox) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	pending := make([]*outbox.Message, 0)
	for _, m := range r.s.outbox {
		if m.Status == shared.OutboxStatusPending && len(pending) < limit {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func (r *MemoryOutbox) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	for _, m := range r.s.outbox {
		if m.ID == id {
			m.Status = status
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *MemoryOutbox) IncrementAttempts(ctx context.Context, id int64) error {
	for _, m := range r.s.outbox {
		if m.ID == id {
			m.IncrementAttempts()
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r *MemoryOutbox) GetByEventID(ctx context.Context, eventID string) (*outbox.Message, error) {
	for _, m := range r.s.outbox {
		if m.EventID == eventID {
			return m, nil
		}
	}
	return nil, outbox.ErrMessageNotFound{EventID: eventID}
}

func (r *MemoryOutbox) CountByStatus(ctx context.Context, status shared.OutboxStatus) (int64, error) {
	var n int64
	for _, m := range r.s.outbox {
		if m.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *MemoryOutbox) WithTx(tx pgx.Tx) outbox.Repository {
	return r
}

// MemoryLocker records lock calls; ExecuteTx already serializes transactions.
type MemoryLocker struct {
	mu        sync.Mutex
	Shared    int
	Exclusive int
}

func (l *MemoryLocker) LockShared(ctx context.Context, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Shared++
	return nil
}

func (l *MemoryLocker) LockExclusive(ctx context.Context, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Exclusive++
	return nil
}

func (l *MemoryLocker) WithTx(tx pgx.Tx) account.OwnerLocker {
	return l
}

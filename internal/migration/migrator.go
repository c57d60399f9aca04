// Package migration imports an owner's legacy flat records into the ledger exactly once.
package migration

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/legacy"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

const migratedDescription = "Migrated record"

type Result struct {
	OwnerID              string                   `json:"owner_id"`
	AlreadyMigrated      bool                     `json:"already_migrated"`
	AccountsImported     int                      `json:"accounts_imported"`
	TransactionsImported int                      `json:"transactions_imported"`
	RecordsSkipped       int                      `json:"records_skipped"`
	Reconciliation       *service.ReconcileResult `json:"reconciliation,omitempty"`
	MigratedAt           time.Time                `json:"migrated_at"`
}

type Migrator struct {
	db                 persistence.TxRunner
	source             legacy.Source
	markers            legacy.MarkerRepository
	accounts           account.Repository
	transactions       transaction.Repository
	locker             account.OwnerLocker
	reconciler         service.Reconciler
	defaultCreditLimit decimal.Decimal
	logger             *slog.Logger
}

func NewMigrator(
	db persistence.TxRunner,
	source legacy.Source,
	markers legacy.MarkerRepository,
	accounts account.Repository,
	transactions transaction.Repository,
	locker account.OwnerLocker,
	reconciler service.Reconciler,
	cfg config.LedgerConfig,
	logger *slog.Logger,
) *Migrator {
	return &Migrator{
		db:                 db,
		source:             source,
		markers:            markers,
		accounts:           accounts,
		transactions:       transactions,
		locker:             locker,
		reconciler:         reconciler,
		defaultCreditLimit: cfg.DefaultCreditLimit,
		logger:             logger,
	}
}

// Migrate imports the owner's legacy records, reconciles and sets the migrated marker in one
// store transaction under the exclusive owner lock. An owner that is already marked is left alone.
func (m *Migrator) Migrate(ctx context.Context, ownerID string) (*Result, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}
	logger := m.logger.With("owner_id", ownerID)

	snapshot, err := m.source.Load(ctx, ownerID)
	if err != nil {
		logger.Error("Failed to load legacy records", "error", err)
		return nil, shared.WrapStorage("load legacy records", err)
	}

	result := &Result{OwnerID: ownerID}
	err = m.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := m.locker.WithTx(tx).LockExclusive(ctx, ownerID); err != nil {
			return err
		}
		markers := m.markers.WithTx(tx)

		marker, err := markers.Get(ctx, ownerID)
		if err != nil {
			return err
		}
		if marker != nil {
			result.AlreadyMigrated = true
			result.AccountsImported = marker.AccountsImported
			result.TransactionsImported = marker.TransactionsImported
			result.RecordsSkipped = marker.RecordsSkipped
			result.MigratedAt = marker.MigratedAt
			return nil
		}

		imp := &importer{
			ownerID:      ownerID,
			accounts:     m.accounts.WithTx(tx),
			transactions: m.transactions.WithTx(tx),
			creditLimit:  m.defaultCreditLimit,
			refs:         make(map[string]uuid.UUID),
			known:        make(map[uuid.UUID]*account.Account),
			result:       result,
			logger:       logger,
		}
		if err := imp.run(ctx, snapshot); err != nil {
			return err
		}

		if result.Reconciliation, err = m.reconciler.ReconcileTx(ctx, tx, ownerID); err != nil {
			return err
		}

		result.MigratedAt = time.Now().UTC()
		return markers.Set(ctx, &legacy.Marker{
			OwnerID:              ownerID,
			MigratedAt:           result.MigratedAt,
			AccountsImported:     result.AccountsImported,
			TransactionsImported: result.TransactionsImported,
			RecordsSkipped:       result.RecordsSkipped,
		})
	})
	if err != nil {
		logger.Error("Legacy migration failed", "error", err)
		return nil, shared.WrapStorage("migrate legacy records", err)
	}

	if result.AlreadyMigrated {
		logger.Info("Owner already migrated", "migrated_at", result.MigratedAt)
		return result, nil
	}
	logger.Info("Legacy records migrated",
		"accounts", result.AccountsImported,
		"transactions", result.TransactionsImported,
		"skipped", result.RecordsSkipped,
	)
	return result, nil
}

// importer carries the per-run state of one owner's import
type importer struct {
	ownerID      string
	accounts     account.Repository
	transactions transaction.Repository
	creditLimit  decimal.Decimal
	refs         map[string]uuid.UUID
	known        map[uuid.UUID]*account.Account
	result       *Result
	logger       *slog.Logger
}

func (imp *importer) run(ctx context.Context, snapshot *legacy.Snapshot) error {
	if snapshot == nil {
		snapshot = &legacy.Snapshot{OwnerID: imp.ownerID}
	}

	existing, err := imp.accounts.ListByOwner(ctx, imp.ownerID, true)
	if err != nil {
		return err
	}
	for _, acc := range existing {
		imp.known[acc.ID] = acc
	}

	if len(snapshot.Accounts) > 0 {
		if err := imp.importAccounts(ctx, snapshot.Accounts); err != nil {
			return err
		}
	} else if err := imp.bindDefaultRefs(ctx, existing); err != nil {
		return err
	}

	expenseAccount, hasExpenseAccount := imp.defaultExpenseAccount()
	for _, e := range snapshot.Expenses {
		if !hasExpenseAccount {
			imp.skip("expense", e.ID, "no default account")
			continue
		}
		txn, err := imp.mapExpense(e, expenseAccount)
		if err != nil {
			imp.skip("expense", e.ID, err.Error())
			continue
		}
		if err := imp.store(ctx, txn); err != nil {
			return err
		}
	}

	for _, t := range snapshot.Transactions {
		txn, err := imp.mapTransaction(t)
		if err != nil {
			imp.skip("transaction", t.ID, err.Error())
			continue
		}
		if err := imp.store(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) importAccounts(ctx context.Context, records []legacy.Account) error {
	for _, la := range records {
		if strings.TrimSpace(la.ID) == "" || strings.TrimSpace(la.Name) == "" {
			imp.skip("account", la.ID, "missing id or name")
			continue
		}

		spec := account.Spec{Name: la.Name, Kind: legacy.MapAccountKind(la.Type), Icon: la.Icon, Color: la.Color}
		if spec.Kind.IsCreditCard() {
			limit := legacy.MapCreditLimit(la.CreditLimit, imp.creditLimit)
			spec.CreditLimit = &limit
		}
		acc, err := account.NewAccountWithID(legacy.AccountID(imp.ownerID, la.ID), imp.ownerID, spec)
		if err != nil {
			imp.skip("account", la.ID, err.Error())
			continue
		}
		if la.IsActive != nil && !*la.IsActive {
			acc.Deactivate()
		}

		created, err := imp.accounts.CreateIfAbsent(ctx, acc)
		if err != nil {
			return err
		}
		if created {
			imp.result.AccountsImported++
			imp.known[acc.ID] = acc
		}
		imp.refs[la.ID] = acc.ID
	}
	return nil
}

// bindDefaultRefs points the legacy starter ids at the owner's accounts, creating the
// default set first when the owner has none.
func (imp *importer) bindDefaultRefs(ctx context.Context, existing []*account.Account) error {
	if len(existing) == 0 {
		for _, spec := range account.DefaultSpecs(imp.creditLimit) {
			acc, err := account.NewAccount(imp.ownerID, spec)
			if err != nil {
				return err
			}
			if err := imp.accounts.Create(ctx, acc); err != nil {
				return err
			}
			existing = append(existing, acc)
			imp.known[acc.ID] = acc
		}
	}

	for _, ref := range legacy.DefaultAccountRefs {
		kind, _ := legacy.DefaultAccountKind(ref)
		if acc := firstOfKind(existing, kind); acc != nil {
			imp.refs[ref] = acc.ID
		}
	}
	return nil
}

func (imp *importer) defaultExpenseAccount() (uuid.UUID, bool) {
	if id, ok := imp.refs[legacy.DefaultAccountRef]; ok {
		return id, true
	}
	accounts := make([]*account.Account, 0, len(imp.known))
	for _, acc := range imp.known {
		accounts = append(accounts, acc)
	}
	if acc := firstOfKind(accounts, account.KindChecking); acc != nil {
		return acc.ID, true
	}
	return uuid.Nil, false
}

func (imp *importer) resolve(ref string) (uuid.UUID, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, false
	}
	if id, ok := imp.refs[ref]; ok {
		return id, true
	}
	if id, err := uuid.Parse(ref); err == nil {
		if _, ok := imp.known[id]; ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (imp *importer) mapExpense(e legacy.Expense, accountID uuid.UUID) (*transaction.Transaction, error) {
	if strings.TrimSpace(e.ID) == "" {
		return nil, shared.NewValidationError("id", "is required")
	}
	amount, err := legacy.MapAmount(e.Amount)
	if err != nil {
		return nil, err
	}
	occurredOn, err := legacy.ParseDate(e.Date)
	if err != nil {
		return nil, err
	}

	ref := legacy.ExpenseRef(e.ID)
	return &transaction.Transaction{
		ID:          legacy.TransactionID(imp.ownerID, ref),
		OwnerID:     imp.ownerID,
		Kind:        transaction.KindExpense,
		AccountID:   accountID,
		Amount:      amount,
		Description: description(e.Description),
		CategoryID:  legacy.MapCategory(e.Category, transaction.KindExpense),
		Emotion:     legacy.MapEmotion(e.Emotion),
		OccurredOn:  occurredOn,
		CreatedAt:   time.Now().UTC(),
		LegacyRef:   ref,
	}, nil
}

func (imp *importer) mapTransaction(t legacy.Transaction) (*transaction.Transaction, error) {
	if strings.TrimSpace(t.ID) == "" {
		return nil, shared.NewValidationError("id", "is required")
	}
	kind, err := legacy.MapTransactionKind(t.Type)
	if err != nil {
		return nil, err
	}
	amount, err := legacy.MapAmount(t.Amount)
	if err != nil {
		return nil, err
	}
	occurredOn, err := legacy.ParseDate(t.Date)
	if err != nil {
		return nil, err
	}
	source, ok := imp.resolve(t.SourceAccount())
	if !ok {
		return nil, shared.NewValidationError("account", "unknown legacy account "+t.SourceAccount())
	}

	ref := legacy.TransactionRef(t.ID)
	txn := &transaction.Transaction{
		ID:          legacy.TransactionID(imp.ownerID, ref),
		OwnerID:     imp.ownerID,
		Kind:        kind,
		AccountID:   source,
		Amount:      amount,
		Description: description(t.Description),
		CategoryID:  legacy.MapCategory(t.Category, kind),
		Emotion:     legacy.MapEmotion(t.Emotion),
		OccurredOn:  occurredOn,
		CreatedAt:   time.Now().UTC(),
		LegacyRef:   ref,
	}

	if kind == transaction.KindTransfer {
		target, ok := imp.resolve(t.DestinationAccount())
		if !ok {
			return nil, shared.NewValidationError("targetAccount", "unknown legacy account "+t.DestinationAccount())
		}
		if target == source {
			return nil, shared.NewValidationError("targetAccount", "must differ from account")
		}
		txn.TargetAccountID = &target
	}
	return txn, nil
}

func (imp *importer) store(ctx context.Context, txn *transaction.Transaction) error {
	created, err := imp.transactions.CreateIfAbsent(ctx, txn)
	if err != nil {
		return err
	}
	if created {
		imp.result.TransactionsImported++
	}
	return nil
}

func (imp *importer) skip(kind, id, reason string) {
	imp.result.RecordsSkipped++
	imp.logger.Warn("Skipping malformed legacy record", "record", kind, "legacy_id", id, "reason", reason)
}

func firstOfKind(accounts []*account.Account, kind account.Kind) *account.Account {
	var first *account.Account
	for _, acc := range accounts {
		if acc.Kind != kind {
			continue
		}
		if first == nil || acc.CreatedAt.Before(first.CreatedAt) ||
			(acc.CreatedAt.Equal(first.CreatedAt) && acc.Name < first.Name) {
			first = acc
		}
	}
	return first
}

func description(raw string) string {
	if d := strings.TrimSpace(raw); d != "" {
		return d
	}
	return migratedDescription
}

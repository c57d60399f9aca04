package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

type LedgerEngine struct {
	db             persistence.TxRunner
	accounts       account.Repository
	transactions   transaction.Repository
	locker         account.OwnerLocker
	validator      OperationValidator
	accountManager AccountManager
	outboxManager  OutboxManager
	tolerance      decimal.Decimal
	logger         *slog.Logger
}

func NewLedgerEngine(
	db persistence.TxRunner,
	accounts account.Repository,
	transactions transaction.Repository,
	locker account.OwnerLocker,
	validator OperationValidator,
	accountManager AccountManager,
	outboxManager OutboxManager,
	tolerance decimal.Decimal,
	logger *slog.Logger,
) *LedgerEngine {
	return &LedgerEngine{
		db:             db,
		accounts:       accounts,
		transactions:   transactions,
		locker:         locker,
		validator:      validator,
		accountManager: accountManager,
		outboxManager:  outboxManager,
		tolerance:      tolerance,
		logger:         logger,
	}
}

var (
	_ Engine     = (*LedgerEngine)(nil)
	_ Reconciler = (*LedgerEngine)(nil)
)

func (e *LedgerEngine) loggerFor(ctx context.Context) *slog.Logger {
	if id := shared.CorrelationID(ctx); id != "" {
		return e.logger.With("correlation_id", id)
	}
	return e.logger
}

// Apply validates and commits one operation. The balance change, the transaction record and
// its outbox message are written in one store transaction, so a failure leaves no trace.
// A repeated request id returns the transaction committed the first time, or a conflict
// when the repeat asks for a different kind, account or amount.
func (e *LedgerEngine) Apply(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error) {
	logger := e.loggerFor(ctx).With("owner_id", ownerID, "kind", string(op.Kind))

	if err := e.validator.Validate(ctx, ownerID, op); err != nil {
		logger.Warn("Operation validation failed", "error", err)
		return nil, err
	}
	txn, err := transaction.NewTransaction(ownerID, op)
	if err != nil {
		return nil, err
	}

	var (
		committed *transaction.Transaction
		replayed  bool
	)
	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.locker.WithTx(tx).LockShared(ctx, ownerID); err != nil {
			return err
		}
		txns := e.transactions.WithTx(tx)

		if op.RequestID != uuid.Nil {
			existing, err := txns.GetByID(ctx, ownerID, op.RequestID)
			if err == nil {
				if !existing.Matches(op) {
					return requestIDReused(op.RequestID)
				}
				committed, replayed = existing, true
				return nil
			}
			if !errors.Is(err, transaction.ErrTransactionNotFound{}) {
				return err
			}
		}

		locked, err := e.accountManager.LockAccounts(ctx, tx, ownerID, op.AccountIDs()...)
		if err != nil {
			return err
		}
		if err := e.accountManager.ApplyEffects(ctx, tx, txn, locked); err != nil {
			return err
		}
		if err := txns.Create(ctx, txn); err != nil {
			return err
		}
		if err := e.outboxManager.CreateOutboxEntry(ctx, tx, journal.NewCommittedEntry(txn, shared.CorrelationID(ctx))); err != nil {
			return err
		}
		committed = txn
		return nil
	})
	if err != nil {
		if op.RequestID != uuid.Nil && errors.Is(err, transaction.ErrDuplicateTransaction{}) {
			// lost a race against the same request id
			return e.replay(ctx, ownerID, op)
		}
		if shared.IsDomainError(err) {
			logger.Warn("Operation rejected", "error", err)
			return nil, err
		}
		logger.Error("Failed to apply operation", "error", err)
		return nil, shared.WrapStorage("apply operation", err)
	}

	if replayed {
		logger.Info("Operation already applied", "transaction_id", committed.ID.String())
		return committed, nil
	}
	logger.Info("Operation committed",
		"transaction_id", committed.ID.String(),
		"account_id", committed.AccountID.String(),
		"amount", committed.Amount.StringFixed(2),
	)
	return committed, nil
}

func (e *LedgerEngine) replay(ctx context.Context, ownerID string, op transaction.Operation) (*transaction.Transaction, error) {
	existing, err := e.transactions.GetByID(ctx, ownerID, op.RequestID)
	if err == nil {
		if !existing.Matches(op) {
			return nil, requestIDReused(op.RequestID)
		}
		return existing, nil
	}
	if errors.Is(err, transaction.ErrTransactionNotFound{}) {
		return nil, shared.ConflictError{Reason: "request id " + op.RequestID.String() + " is already in use"}
	}
	return nil, shared.WrapStorage("replay operation", err)
}

func requestIDReused(requestID uuid.UUID) error {
	return shared.ConflictError{Reason: "request id " + requestID.String() + " was already used for a different operation"}
}

// Reconcile rebuilds every balance of the owner from the transaction history while
// holding the exclusive owner lock.
func (e *LedgerEngine) Reconcile(ctx context.Context, ownerID string) (*ReconcileResult, error) {
	if ownerID == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}
	logger := e.loggerFor(ctx).With("owner_id", ownerID)

	var result *ReconcileResult
	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := e.locker.WithTx(tx).LockExclusive(ctx, ownerID); err != nil {
			return err
		}
		var err error
		result, err = e.ReconcileTx(ctx, tx, ownerID)
		return err
	})
	if err != nil {
		logger.Error("Failed to reconcile balances", "error", err)
		return nil, shared.WrapStorage("reconcile", err)
	}

	logger.Info("Balances reconciled",
		"accounts", len(result.Accounts),
		"changed", result.AccountsChanged,
		"orphaned_transactions", result.OrphanedTransactions,
	)
	return result, nil
}

// ReconcileTx sets each account to the replayed sum of its history. Legs that point at an
// unknown account are skipped and the transaction is counted as orphaned.
func (e *LedgerEngine) ReconcileTx(ctx context.Context, tx pgx.Tx, ownerID string) (*ReconcileResult, error) {
	accounts := e.accounts.WithTx(tx)

	owned, err := accounts.ListByOwner(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}
	history, err := e.transactions.WithTx(tx).History(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	known := make(map[uuid.UUID]bool, len(owned))
	for _, acc := range owned {
		known[acc.ID] = true
	}
	replayed := transaction.Replay(history)

	result := &ReconcileResult{
		OwnerID:              ownerID,
		Accounts:             make([]BalanceChange, 0, len(owned)),
		OrphanedTransactions: countOrphaned(history, known),
	}
	for _, acc := range owned {
		change := BalanceChange{AccountID: acc.ID, Before: acc.Balance, After: replayed[acc.ID]}
		if change.Changed() {
			if err := accounts.SetBalance(ctx, acc.ID, change.After); err != nil {
				return nil, err
			}
			result.AccountsChanged++
		}
		result.Accounts = append(result.Accounts, change)
	}

	entry := journal.NewReconciledEntry(ownerID, result.snapshot(), shared.CorrelationID(ctx))
	if err := e.outboxManager.CreateOutboxEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	return result, nil
}

// ValidateIntegrity inspects the owner's accounts and history without changing anything.
func (e *LedgerEngine) ValidateIntegrity(ctx context.Context, ownerID string) (*IntegrityReport, error) {
	if ownerID == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}

	var (
		owned   []*account.Account
		history []*transaction.Transaction
	)
	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		// exclusive, so no apply lands between the two reads
		if err := e.locker.WithTx(tx).LockExclusive(ctx, ownerID); err != nil {
			return err
		}
		var err error
		if owned, err = e.accounts.WithTx(tx).ListByOwner(ctx, ownerID, true); err != nil {
			return err
		}
		history, err = e.transactions.WithTx(tx).History(ctx, ownerID)
		return err
	})
	if err != nil {
		e.loggerFor(ctx).Error("Failed to load ledger for integrity check", "owner_id", ownerID, "error", err)
		return nil, shared.WrapStorage("validate integrity", err)
	}

	report := CheckIntegrity(owned, history, e.tolerance)
	e.loggerFor(ctx).Info("Integrity check finished", "owner_id", ownerID, "valid", report.Valid, "issues", report.Summary.IssuesFound)
	return report, nil
}

// CheckIntegrity is the pure part of ValidateIntegrity.
func CheckIntegrity(accounts []*account.Account, history []*transaction.Transaction, tolerance decimal.Decimal) *IntegrityReport {
	report := &IntegrityReport{Issues: make([]Issue, 0)}
	add := func(code IssueCode, accountID, transactionID, detail string) {
		report.Issues = append(report.Issues, Issue{Code: code, AccountID: accountID, TransactionID: transactionID, Detail: detail})
	}

	known := make(map[uuid.UUID]*account.Account, len(accounts))
	for _, acc := range accounts {
		id := acc.ID.String()
		if _, dup := known[acc.ID]; dup {
			add(IssueDuplicateAccount, id, "", "account id appears more than once")
			continue
		}
		known[acc.ID] = acc

		if acc.OwnerID == "" {
			add(IssueMissingOwner, id, "", "account has no owner")
		}
		if acc.Kind.IsCreditCard() {
			if acc.CreditLimit == nil || !acc.CreditLimit.IsPositive() {
				add(IssueMissingCreditLimit, id, "", "credit card has no positive credit limit")
			} else if acc.Owed().GreaterThan(*acc.CreditLimit) {
				add(IssueCreditLimitExceeded, id, "",
					fmt.Sprintf("owed %s exceeds limit %s", acc.Owed().StringFixed(2), acc.CreditLimit.StringFixed(2)))
			}
		} else if acc.Balance.LessThan(tolerance.Neg()) {
			add(IssueNegativeBalance, id, "", "balance "+acc.Balance.StringFixed(2)+" is below zero")
		}
	}

	for _, txn := range history {
		id := txn.ID.String()
		if _, ok := known[txn.AccountID]; !ok {
			add(IssueUnknownAccount, txn.AccountID.String(), id, "transaction references an unknown account")
		}
		if txn.TargetAccountID != nil {
			if _, ok := known[*txn.TargetAccountID]; !ok {
				add(IssueUnknownTargetAccount, txn.TargetAccountID.String(), id, "transaction references an unknown target account")
			}
		}
		if txn.Kind == transaction.KindTransfer {
			if txn.TargetAccountID == nil {
				add(IssueTransferWithoutTarget, txn.AccountID.String(), id, "transfer has no target account")
			} else if *txn.TargetAccountID == txn.AccountID {
				add(IssueSelfTransfer, txn.AccountID.String(), id, "transfer target equals source")
			}
		}
	}

	replayed := transaction.Replay(history)
	for _, acc := range accounts {
		if known[acc.ID] != acc {
			continue
		}
		expected := replayed[acc.ID]
		if !acc.Balance.Equal(expected) {
			add(IssueBalanceDrift, acc.ID.String(), "",
				fmt.Sprintf("stored balance %s, ledger says %s", acc.Balance.StringFixed(2), expected.StringFixed(2)))
		}
	}

	report.Valid = len(report.Issues) == 0
	report.Summary = IntegritySummary{
		TotalAccounts:     len(accounts),
		TotalTransactions: len(history),
		IssuesFound:       len(report.Issues),
	}
	return report
}

func countOrphaned(history []*transaction.Transaction, known map[uuid.UUID]bool) int {
	orphaned := 0
	for _, txn := range history {
		for _, eff := range txn.Effects() {
			if !known[eff.AccountID] {
				orphaned++
				break
			}
		}
	}
	return orphaned
}

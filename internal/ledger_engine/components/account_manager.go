package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/shopspring/decimal"
)

type AccountManagerImpl struct {
	accountRepo account.Repository
	tolerance   decimal.Decimal
	logger      *slog.Logger
}

func NewAccountManager(accountRepo account.Repository, tolerance decimal.Decimal, logger *slog.Logger) service.AccountManager {
	return &AccountManagerImpl{
		accountRepo: accountRepo,
		tolerance:   tolerance,
		logger:      logger,
	}
}

// LockAccounts locks the rows in the order given. Callers pass Operation.AccountIDs so
// two transfers between the same pair of accounts cannot deadlock.
func (m *AccountManagerImpl) LockAccounts(ctx context.Context, tx pgx.Tx, ownerID string, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	accountRepoTx := m.accountRepo.WithTx(tx)

	locked := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		acc, err := accountRepoTx.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{AccountID: id}) {
				m.logger.Warn("Account not found for lock", "owner_id", ownerID, "acc_id", id.String())
				return nil, err
			}
			m.logger.Error("Failed to lock account", "owner_id", ownerID, "acc_id", id.String(), "error", err)
			return nil, fmt.Errorf("failed to lock account %s: %w", id.String(), err)
		}
		if acc.OwnerID != ownerID {
			m.logger.Warn("Account belongs to another owner", "owner_id", ownerID, "acc_id", id.String())
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		if !acc.IsActive {
			return nil, account.ErrAccountInactive{AccountID: id}
		}
		locked[id] = acc
	}
	return locked, nil
}

// ApplyEffects checks every debit against the locked balance before writing it as a delta.
func (m *AccountManagerImpl) ApplyEffects(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, locked map[uuid.UUID]*account.Account) error {
	accountRepoTx := m.accountRepo.WithTx(tx)

	effects := txn.Effects()
	for _, eff := range effects {
		acc, ok := locked[eff.AccountID]
		if !ok {
			return account.ErrAccountNotFound{AccountID: eff.AccountID}
		}
		if eff.Delta.IsNegative() {
			if err := acc.CheckDebit(eff.Delta.Neg(), m.tolerance); err != nil {
				m.logger.Warn("Funds check failed",
					"req_id", txn.ID.String(),
					"acc_id", acc.ID.String(),
					"bal", acc.Balance.StringFixed(2),
					"amt", eff.Delta.Neg().StringFixed(2),
				)
				return err
			}
		}
	}

	for _, eff := range effects {
		balance, err := accountRepoTx.ApplyDelta(ctx, eff.AccountID, eff.Delta)
		if err != nil {
			m.logger.Error("Failed to apply balance delta", "req_id", txn.ID.String(), "acc_id", eff.AccountID.String(), "error", err)
			return fmt.Errorf("failed to update balance of account %s: %w", eff.AccountID.String(), err)
		}
		acc := locked[eff.AccountID]
		acc.Balance = balance
		acc.Version++
		m.logger.Debug("Account balance updated", "req_id", txn.ID.String(), "acc_id", eff.AccountID.String(), "new_bal", balance.StringFixed(2))
	}
	return nil
}

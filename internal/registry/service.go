// Package registry owns the lifecycle of an owner's accounts. Balances are only read here;
// the ledger engine is the single writer.
package registry

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/config"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

type Service struct {
	db                 persistence.TxRunner
	accounts           account.Repository
	transactions       transaction.Repository
	locker             account.OwnerLocker
	defaultCreditLimit decimal.Decimal
	tolerance          decimal.Decimal
	logger             *slog.Logger
}

func NewService(
	db persistence.TxRunner,
	accounts account.Repository,
	transactions transaction.Repository,
	locker account.OwnerLocker,
	cfg config.LedgerConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:                 db,
		accounts:           accounts,
		transactions:       transactions,
		locker:             locker,
		defaultCreditLimit: cfg.DefaultCreditLimit,
		tolerance:          cfg.BalanceTolerance,
		logger:             logger,
	}
}

// EnsureDefaultAccounts gives an owner without any account the starter set and returns the
// active accounts. Concurrent first calls are serialized by the exclusive owner lock.
func (s *Service) EnsureDefaultAccounts(ctx context.Context, ownerID string) ([]*account.Account, error) {
	if ownerID == "" {
		return nil, shared.NewValidationError("owner_id", "cannot be empty")
	}

	created := 0
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.locker.WithTx(tx).LockExclusive(ctx, ownerID); err != nil {
			return err
		}
		accounts := s.accounts.WithTx(tx)

		count, err := accounts.CountByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, spec := range account.DefaultSpecs(s.defaultCreditLimit) {
			acc, err := account.NewAccount(ownerID, spec)
			if err != nil {
				return err
			}
			if err := accounts.Create(ctx, acc); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return nil, shared.WrapStorage("ensure default accounts", err)
	}

	if created > 0 {
		s.logger.Info("Created default accounts", "owner_id", ownerID, "count", created)
	}
	return s.GetActiveAccounts(ctx, ownerID)
}

// GetActiveAccounts returns the owner's active accounts ordered by name.
func (s *Service) GetActiveAccounts(ctx context.Context, ownerID string) ([]*account.Account, error) {
	accounts, err := s.accounts.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return nil, shared.WrapStorage("list accounts", err)
	}
	return accounts, nil
}

// ListAccounts is GetActiveAccounts, optionally including deactivated accounts.
func (s *Service) ListAccounts(ctx context.Context, ownerID string, includeInactive bool) ([]*account.Account, error) {
	accounts, err := s.accounts.ListByOwner(ctx, ownerID, includeInactive)
	if err != nil {
		return nil, shared.WrapStorage("list accounts", err)
	}
	return accounts, nil
}

// GetAccount reports accounts of other owners as not found.
func (s *Service) GetAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, shared.WrapStorage("get account", err)
	}
	if acc.OwnerID != ownerID {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return acc, nil
}

func (s *Service) CreateAccount(ctx context.Context, ownerID string, spec account.Spec) (*account.Account, error) {
	acc, err := account.NewAccount(ownerID, spec)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, shared.WrapStorage("create account", err)
	}

	s.logger.Info("Account created", "owner_id", ownerID, "account_id", acc.ID.String(), "kind", string(acc.Kind))
	return acc, nil
}

// UpdateAccount patches descriptive fields. The row lock keeps the engine from
// observing a half-applied kind/limit change, and the patch is refused when the
// current balance would not fit the new kind or limit.
func (s *Service) UpdateAccount(ctx context.Context, ownerID string, id uuid.UUID, patch account.Patch) (*account.Account, error) {
	var updated *account.Account
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := s.accounts.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if acc.OwnerID != ownerID {
			return account.ErrAccountNotFound{AccountID: id}
		}
		if err := acc.ApplyPatch(patch, s.tolerance); err != nil {
			return err
		}
		if err := accounts.UpdateDetails(ctx, acc); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		return nil, shared.WrapStorage("update account", err)
	}
	return updated, nil
}

// DeactivateAccount refuses accounts that any transaction references. The exclusive owner
// lock keeps an apply from referencing the account between the check and the update.
func (s *Service) DeactivateAccount(ctx context.Context, ownerID string, id uuid.UUID) (*account.Account, error) {
	var deactivated *account.Account
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.locker.WithTx(tx).LockExclusive(ctx, ownerID); err != nil {
			return err
		}
		accounts := s.accounts.WithTx(tx)

		acc, err := accounts.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if acc.OwnerID != ownerID {
			return account.ErrAccountNotFound{AccountID: id}
		}
		if !acc.IsActive {
			deactivated = acc
			return nil
		}

		refs, err := s.transactions.WithTx(tx).CountReferencing(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return shared.ConflictError{
				Reason: "account " + id.String() + " is referenced by " + strconv.FormatInt(refs, 10) + " transactions",
			}
		}

		acc.Deactivate()
		if err := accounts.UpdateDetails(ctx, acc); err != nil {
			return err
		}
		deactivated = acc
		return nil
	})
	if err != nil {
		return nil, shared.WrapStorage("deactivate account", err)
	}

	s.logger.Info("Account deactivated", "owner_id", ownerID, "account_id", id.String())
	return deactivated, nil
}

func (s *Service) TotalBalance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	accounts, err := s.GetActiveAccounts(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.TotalBalance(accounts), nil
}

func (s *Service) TotalCreditDebt(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	accounts, err := s.GetActiveAccounts(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.TotalCreditDebt(accounts), nil
}

func (s *Service) Summary(ctx context.Context, ownerID string) (account.Summary, error) {
	accounts, err := s.GetActiveAccounts(ctx, ownerID)
	if err != nil {
		return account.Summary{}, err
	}
	return account.Summarize(accounts), nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mindful-finance-ledger/internal/domain/legacy"
	"github.com/spf13/cobra"
)

// ErrIntegrityViolations makes `ledgerctl integrity` exit non-zero when issues were found
var ErrIntegrityViolations = errors.New("integrity check found issues")

func newReconcileCommand(open Opener, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild balances from the transaction history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				result, err := b.Reconcile(ctx, opts.owner)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return writeJSON(out, result)
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tBEFORE\tAFTER\tCHANGED")
				for _, c := range result.Accounts {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", c.AccountID, c.Before.StringFixed(2), c.After.StringFixed(2), c.Changed())
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d of %d accounts changed, %d orphaned transactions\n",
					result.AccountsChanged, len(result.Accounts), result.OrphanedTransactions)
				return nil
			})
		},
	}
}

func newIntegrityCommand(open Opener, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "integrity",
		Short: "Check stored balances and references against the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				report, err := b.ValidateIntegrity(ctx, opts.owner)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					if err := writeJSON(out, report); err != nil {
						return err
					}
				} else if report.Valid {
					fmt.Fprintf(out, "OK: %d accounts, %d transactions\n",
						report.Summary.TotalAccounts, report.Summary.TotalTransactions)
				} else {
					w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "CODE\tACCOUNT\tTRANSACTION\tDETAIL")
					for _, issue := range report.Issues {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", issue.Code, dash(issue.AccountID), dash(issue.TransactionID), issue.Detail)
					}
					if err := w.Flush(); err != nil {
						return err
					}
				}

				if !report.Valid {
					return fmt.Errorf("%w: %d", ErrIntegrityViolations, len(report.Issues))
				}
				return nil
			})
		},
	}
}

func newMigrateCommand(open Opener, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Import the owner's legacy records into the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				result, err := b.MigrateLegacy(ctx, opts.owner)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return writeJSON(out, result)
				}

				if result.AlreadyMigrated {
					fmt.Fprintf(out, "Owner %s was already migrated at %s\n", result.OwnerID, result.MigratedAt.Format("2006-01-02 15:04:05"))
					return nil
				}
				fmt.Fprintf(out, "Imported %d accounts and %d transactions, skipped %d records\n",
					result.AccountsImported, result.TransactionsImported, result.RecordsSkipped)
				return nil
			})
		},
	}
}

// newStageCommand reads a legacy export (accounts, expenses and transactions as the old
// client stored them) and saves it as the owner's legacy document. Migrate imports it.
func newStageCommand(open Opener, opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Load an exported legacy snapshot into the legacy store",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := readSnapshot(file)
			if err != nil {
				return err
			}
			snapshot.OwnerID = opts.owner

			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				if err := b.StageLegacy(ctx, snapshot); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return writeJSON(out, map[string]interface{}{
						"owner_id":     snapshot.OwnerID,
						"accounts":     len(snapshot.Accounts),
						"expenses":     len(snapshot.Expenses),
						"transactions": len(snapshot.Transactions),
					})
				}
				fmt.Fprintf(out, "Staged %d accounts, %d expenses and %d transactions for %s\n",
					len(snapshot.Accounts), len(snapshot.Expenses), len(snapshot.Transactions), snapshot.OwnerID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Legacy export in JSON (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSnapshot(path string) (*legacy.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var snapshot legacy.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if snapshot.IsEmpty() {
		return nil, fmt.Errorf("%s holds no legacy records", path)
	}
	return &snapshot, nil
}

func newDefaultsCommand(open Opener, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Create the starter accounts for an owner without accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				accounts, err := b.EnsureDefaultAccounts(ctx, opts.owner)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return writeJSON(out, accounts)
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tKIND\tBALANCE")
				for _, acc := range accounts {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acc.ID, acc.Name, acc.Kind, acc.Balance.StringFixed(2))
				}
				return w.Flush()
			})
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Package cli implements ledgerctl, the operator tool for the owner-wide maintenance
// operations of the ledger.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/mindful-finance-ledger/internal/domain/account"
	"github.com/mindful-finance-ledger/internal/domain/legacy"
	ledger "github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/migration"
	"github.com/spf13/cobra"
)

// Backend is what the commands run against
type Backend interface {
	Reconcile(ctx context.Context, ownerID string) (*ledger.ReconcileResult, error)
	ValidateIntegrity(ctx context.Context, ownerID string) (*ledger.IntegrityReport, error)
	MigrateLegacy(ctx context.Context, ownerID string) (*migration.Result, error)
	EnsureDefaultAccounts(ctx context.Context, ownerID string) ([]*account.Account, error)
	StageLegacy(ctx context.Context, snapshot *legacy.Snapshot) error
}

// Opener connects the backend once flags are parsed and any env file is loaded.
// The returned func releases its connections.
type Opener func(ctx context.Context) (Backend, func(), error)

type options struct {
	owner      string
	envFile    string
	jsonOutput bool
}

// NewRootCommand builds the ledgerctl command tree
func NewRootCommand(open Opener) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Maintenance operations for the personal finance ledger",
		Long: `ledgerctl runs the owner-wide ledger operations outside the HTTP API.

Commands:
  reconcile   - Rebuild every balance of an owner from the transaction history
  integrity   - Report balance drift and dangling references without changing anything
  stage       - Load an exported legacy snapshot file into the legacy store
  migrate     - Import the owner's legacy flat records, once
  defaults    - Create the starter accounts for an owner without accounts`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile == "" {
				return nil
			}
			if err := godotenv.Load(opts.envFile); err != nil {
				return fmt.Errorf("failed to load env file %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.owner, "owner", "", "Owner id to operate on (required)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Env file loaded before configuration is read")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	_ = root.MarkPersistentFlagRequired("owner")

	root.AddCommand(
		newReconcileCommand(open, opts),
		newIntegrityCommand(open, opts),
		newStageCommand(open, opts),
		newMigrateCommand(open, opts),
		newDefaultsCommand(open, opts),
	)
	return root
}

// withBackend opens the backend for the duration of one command
func withBackend(cmd *cobra.Command, open Opener, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, closeFn, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer closeFn()

	return fn(ctx, backend)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

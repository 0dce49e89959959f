package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spendlog/internal/backend"
	"spendlog/internal/core"
)

type rootOptions struct {
	envFile  string
	backend  string
	logLevel string

	// open builds the runtime; tests swap it for an in-memory one.
	open func(ctx context.Context, opts *rootOptions, component string) (*runtime, error)
}

// Execute runs the spendlog command line.
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{open: openRuntime})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spendlog",
		Short: "Personal expense ledger with budget tracking",
		Long: `spendlog records expenses, tracks them against a budget and
summarizes spending per category.

Run "spendlog serve" for the web page, or use the ledger commands directly:
  spendlog add --amount 12.50 --category Food --note lunch
  spendlog budget 500
  spendlog summary -o yaml`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment from this file (default .env if present)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "",
		fmt.Sprintf("override DATA_BACKEND %v", backend.GetBackendTypeStrings()))
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newServeCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newBudgetCmd(opts),
		newListCmd(opts),
		newSummaryCmd(opts),
	)
	return cmd
}

// withLedger opens the runtime, loads the ledger and reports load issues on
// stderr before running fn.
func withLedger(cmd *cobra.Command, opts *rootOptions, component string, fn func(rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := opts.open(ctx, opts, component)
	if err != nil {
		return err
	}
	defer rt.Close()

	report := rt.svc.Load(ctx)
	for _, issue := range report.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignored %s\n", issue)
	}
	return fn(rt)
}

func currency(rt *runtime) string {
	if rt.cfg.CurrencySymbol == "" {
		return "₹"
	}
	return rt.cfg.CurrencySymbol
}

// knownCategories is the configured list plus categories already in use.
func knownCategories(rt *runtime) []string {
	var used []string
	for _, e := range rt.svc.Records() {
		used = append(used, e.Category)
	}
	return core.MergeCategories(rt.cfg.CategoryList(core.DefaultCategories), used)
}

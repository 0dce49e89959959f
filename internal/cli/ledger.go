package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		amount, category, note, date string
		edit                         int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense, or replace one with --edit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, opts, applog.ComponentCLI, func(rt *runtime) error {
				m, err := core.ParseMoney(amount)
				if err != nil {
					return fmt.Errorf("amount %q: %w", amount, err)
				}
				d, err := core.ParseDate(date)
				if err != nil {
					return fmt.Errorf("date %q: %w", date, err)
				}
				e := core.Expense{Amount: m, Category: category, Note: note, Date: d}

				if s, ok := core.SuggestCategory(category, knownCategories(rt)); ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "note: unknown category %q, did you mean %q?\n", category, s)
				}

				report, err := rt.svc.AddOrUpdate(cmd.Context(), e, edit)
				if err != nil {
					return err
				}
				verb := "Added"
				if report.Replaced {
					verb = "Updated"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s on %s\n", verb, e.Amount.Format(currency(rt)), e.Category, e.Date)
				warnNotDurable(cmd.ErrOrStderr(), report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50 (required)")
	cmd.Flags().StringVar(&category, "category", "", "expense category (required)")
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	cmd.Flags().StringVar(&date, "date", time.Now().Format(core.DateLayout), "date as YYYY-MM-DD")
	cmd.Flags().IntVar(&edit, "edit", core.NoEdit, "index of the expense to replace")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove the expense at index (see list)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return withLedger(cmd, opts, applog.ComponentCLI, func(rt *runtime) error {
				report, err := rt.svc.Remove(cmd.Context(), index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s on %s\n",
					report.Removed.Amount.Format(currency(rt)), report.Removed.Category, report.Removed.Date)
				warnNotDurable(cmd.ErrOrStderr(), report)
				return nil
			})
		},
	}
}

func newBudgetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "budget [amount]",
		Short: "Show the budget, or set it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, opts, applog.ComponentCLI, func(rt *runtime) error {
				if len(args) == 0 {
					b := rt.svc.Budget()
					if b.IsZero() {
						fmt.Fprintln(cmd.OutOrStdout(), "No budget set")
						return nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), b.Format(currency(rt)))
					return nil
				}
				m, err := core.ParseMoney(args[0])
				if err != nil {
					return fmt.Errorf("budget %q: %w", args[0], core.ErrInvalidBudget)
				}
				report, err := rt.svc.SetBudget(cmd.Context(), m)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Budget set to %s\n", m.Format(currency(rt)))
				warnNotDurable(cmd.ErrOrStderr(), report)
				return nil
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses in entry order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, opts, applog.ComponentCLI, func(rt *runtime) error {
				return writeList(cmd.OutOrStdout(), rt.svc.Records(), currency(rt))
			})
		},
	}
}

func writeList(w io.Writer, records []core.Expense, symbol string) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No data yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tCATEGORY\tAMOUNT\tNOTE")
	for i, e := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, e.Date, e.Category, e.Amount.Format(symbol), e.NoteOr("No note"))
	}
	return tw.Flush()
}

func warnNotDurable(w io.Writer, report services.SaveReport) {
	if !report.Durable() {
		fmt.Fprintf(w, "warning: %s was not saved to storage: %v\n", report.Key, report.Err)
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

type summaryOutput struct {
	Total           string           `json:"total" yaml:"total"`
	Budget          string           `json:"budget,omitempty" yaml:"budget,omitempty"`
	Status          string           `json:"status" yaml:"status"`
	Message         string           `json:"message,omitempty" yaml:"message,omitempty"`
	ProgressPercent float64          `json:"progress_percent" yaml:"progress_percent"`
	Count           int              `json:"count" yaml:"count"`
	Categories      []categoryOutput `json:"categories" yaml:"categories"`
}

type categoryOutput struct {
	Name         string  `json:"name" yaml:"name"`
	Amount       string  `json:"amount" yaml:"amount"`
	SharePercent float64 `json:"share_percent" yaml:"share_percent"`
	AngleDegrees float64 `json:"angle_degrees" yaml:"angle_degrees"`
}

func newSummaryOutput(s core.Summary, symbol string) summaryOutput {
	out := summaryOutput{
		Total:           s.Total.String(),
		Status:          s.Status.String(),
		Message:         s.Message(symbol),
		ProgressPercent: round2(s.ProgressPercent),
		Count:           s.Count,
		Categories:      make([]categoryOutput, 0, len(s.Categories)),
	}
	if !s.Budget.IsZero() {
		out.Budget = s.Budget.String()
	}
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, categoryOutput{
			Name:         c.Name,
			Amount:       c.Amount.String(),
			SharePercent: round2(c.SharePercent),
			AngleDegrees: round2(c.AngleDegrees),
		})
	}
	return out
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals per category and the budget status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			render, err := summaryRenderer(output)
			if err != nil {
				return err
			}
			return withLedger(cmd, opts, applog.ComponentCLI, func(rt *runtime) error {
				return render(cmd.OutOrStdout(), rt.svc.Summary(), currency(rt))
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

type renderFunc func(w io.Writer, s core.Summary, symbol string) error

func summaryRenderer(format string) (renderFunc, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return writeSummaryText, nil
	case "json":
		return writeSummaryJSON, nil
	case "yaml", "yml":
		return writeSummaryYAML, nil
	default:
		return nil, fmt.Errorf("unknown output format %q: use text, json or yaml", format)
	}
}

func writeSummaryJSON(w io.Writer, s core.Summary, symbol string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newSummaryOutput(s, symbol))
}

func writeSummaryYAML(w io.Writer, s core.Summary, symbol string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newSummaryOutput(s, symbol)); err != nil {
		return err
	}
	return enc.Close()
}

// barWidth is the length of a full category bar in text output.
const barWidth = 20

func writeSummaryText(w io.Writer, s core.Summary, symbol string) error {
	fmt.Fprintf(w, "Total:  %s\n", s.Total.Format(symbol))
	if !s.Budget.IsZero() {
		fmt.Fprintf(w, "Budget: %s (%.0f%% used)\n", s.Budget.Format(symbol), s.ProgressPercent)
	}
	if msg := s.Message(symbol); msg != "" {
		fmt.Fprintf(w, "Status: %s\n", msg)
	}
	if s.IsEmpty() {
		_, err := fmt.Fprintln(w, "No data yet")
		return err
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range s.Categories {
		n := int(c.SharePercent/100*barWidth + 0.5)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\n", c.Name, c.Amount.Format(symbol), strings.Repeat("#", n), c.AngleDegrees/3.6)
	}
	return tw.Flush()
}

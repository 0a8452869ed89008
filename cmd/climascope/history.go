package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
)

type historyOpts struct {
	company    string
	department string
	from       string
	to         string
	limit      int
	outputFmt  string
}

func newHistoryCmd(g *globalOpts) *cobra.Command {
	var opts historyOpts

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the dated morale history per group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.company, "company", "", "Company name (when grouping by company)")
	cmd.Flags().StringVar(&opts.department, "department", "", "Department name")
	cmd.Flags().StringVar(&opts.from, "from", "", "First date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last date YYYY-MM-DD")
	cmd.Flags().IntVar(&opts.limit, "limit", 100, "Maximum rows")
	cmd.Flags().StringVar(&opts.outputFmt, "output", "text", "Output format: text or json")

	return cmd
}

// buildFilter turns flags into a history filter for the configured
// group-by fields.
func buildFilter(opts historyOpts, groupBy []string) (history.Filter, error) {
	f := history.Filter{GroupBy: groupBy, Limit: opts.limit}

	values := map[string]string{"company": opts.company, "department": opts.department}
	var key sentiment.GroupKey
	for _, field := range groupBy {
		if v := values[field]; v != "" {
			key = append(key, v)
		}
	}
	if len(key) > 0 && len(key) != len(groupBy) {
		return f, fmt.Errorf("group filter needs every group-by field: %v", groupBy)
	}
	if len(key) > 0 {
		f.Group = key
	}

	var err error
	if f.From, err = parseDate("from", opts.from); err != nil {
		return f, err
	}
	if f.To, err = parseDate("to", opts.to); err != nil {
		return f, err
	}
	return f, nil
}

func runHistory(ctx context.Context, g *globalOpts, opts historyOpts) error {
	if opts.outputFmt != "text" && opts.outputFmt != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", opts.outputFmt)
	}

	cfg, logger, db, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() { _ = logger.Sync() }()

	f, err := buildFilter(opts, cfg.Pipeline.GroupBy)
	if err != nil {
		return err
	}
	rows, err := history.NewStore(db).List(ctx, f)
	if err != nil {
		return err
	}

	if opts.outputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return printHistory(os.Stdout, rows)
}

func printHistory(w io.Writer, rows []history.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tGROUP\tMEAN")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", r.AsOf.Format(report.DateLayout), r.Group, r.MeanPolarity)
	}
	return tw.Flush()
}

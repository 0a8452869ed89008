package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climascope/climascope/internal/archive"
	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/internal/pipeline"
	"github.com/climascope/climascope/internal/scorer"
	"github.com/climascope/climascope/internal/survey"
	"github.com/climascope/climascope/pkg/surface"
)

type runOpts struct {
	outputFmt   string
	dryRun      bool
	asOf        string
	concurrency int
}

func newRunCmd(g *globalOpts) *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sentiment pipeline once",
		Long: `Loads survey answers, scores free text, aggregates per group, evaluates
alerts and prints the executive summary. Results are written to the history
table and archived unless --dry-run is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.outputFmt, "output", "text", "Output format: text, json or markdown")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Skip history writes and report archiving")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "Snapshot date YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Concurrent scorer calls (default: from config)")

	return cmd
}

func runPipeline(ctx context.Context, g *globalOpts, opts runOpts) error {
	renderer, err := surface.ForFormat(opts.outputFmt)
	if err != nil {
		return err
	}
	asOf, err := parseDate("as-of", opts.asOf)
	if err != nil {
		return err
	}

	cfg, logger, db, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() { _ = logger.Sync() }()

	sc, err := scorer.NewHTTPScorer(scorer.Options{
		Endpoint:  cfg.Scorer.Endpoint,
		Model:     cfg.Scorer.Model,
		Token:     firstNonEmpty(os.Getenv("SCORER_TOKEN"), cfg.Scorer.Token),
		MaxChars:  cfg.Scorer.MaxChars,
		Timeout:   cfg.ScorerTimeout(),
		RateLimit: cfg.Scorer.RateLimit,
	})
	if err != nil {
		return err
	}

	store, err := archive.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	concurrency := cfg.Scorer.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	svc, err := pipeline.NewService(survey.NewLoader(db), sc, history.NewStore(db), store, pipeline.Options{
		Config:      cfg.Core(),
		Concurrency: concurrency,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	rep, err := svc.Run(ctx, pipeline.RunOptions{AsOf: asOf, DryRun: opts.dryRun})
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return renderer.Render(os.Stdout, rep)
}

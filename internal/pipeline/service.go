// Package pipeline runs one end-to-end sentiment pass: load survey answers,
// score free text, aggregate, alert, summarize, persist and archive.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/climascope/climascope/internal/archive"
	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/internal/survey"
	"github.com/climascope/climascope/pkg/report"
	"github.com/climascope/climascope/pkg/sentiment"
)

// Loader abstracts the survey source.
type Loader interface {
	Load(ctx context.Context, groupBy []string) ([]survey.Response, error)
}

// Scorer resolves a free-text answer to a polarity.
type Scorer interface {
	Score(ctx context.Context, text string) (int, error)
}

// HistoryStore persists history rows and run bookkeeping.
type HistoryStore interface {
	Insert(ctx context.Context, runID string, groupBy []string, records []sentiment.HistoricalRecord) error
	CreateRun(ctx context.Context, runID string, asOf time.Time) error
	FinishRun(ctx context.Context, run history.RunRow) error
}

// Archive stores rendered reports.
type Archive interface {
	PutReport(ctx context.Context, runID string, data []byte) error
}

// Options configures a Service.
type Options struct {
	Config      sentiment.Config
	Concurrency int
	Logger      *zap.Logger
	Now         func() time.Time
}

// RunOptions controls a single run.
type RunOptions struct {
	AsOf   time.Time // zero means today
	DryRun bool      // skip history, run bookkeeping and archive
}

// Service orchestrates a pipeline run. History and archive are optional;
// when nil the corresponding step is skipped.
type Service struct {
	loader  Loader
	scorer  Scorer
	history HistoryStore
	archive Archive
	engine  *sentiment.Engine
	cfg     sentiment.Config
	limit   int
	log     *zap.Logger
	now     func() time.Time
}

// NewService validates the configuration and creates a Service.
func NewService(loader Loader, scorer Scorer, hist HistoryStore, arch Archive, opts Options) (*Service, error) {
	if loader == nil || scorer == nil {
		return nil, fmt.Errorf("pipeline: loader and scorer are required")
	}
	engine, err := sentiment.NewEngine(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		loader:  loader,
		scorer:  scorer,
		history: hist,
		archive: arch,
		engine:  engine,
		cfg:     opts.Config,
		limit:   opts.Concurrency,
		log:     opts.Logger,
		now:     opts.Now,
	}, nil
}

// Run executes the pipeline. A run without eligible responses completes
// with status no_data and an empty report; it is not an error.
func (s *Service) Run(ctx context.Context, opts RunOptions) (rep *report.Report, err error) {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))
	persist := s.history != nil && !opts.DryRun

	if persist {
		if err := s.history.CreateRun(ctx, runID, asOf); err != nil {
			return nil, err
		}
		defer func() {
			if err == nil {
				return
			}
			msg := err.Error()
			fctx, cancel := bookkeepingContext(ctx)
			defer cancel()
			if ferr := s.history.FinishRun(fctx, history.RunRow{ID: runID, Status: history.StatusFailed, ErrorMessage: &msg}); ferr != nil {
				log.Warn("failed to mark run as failed", zap.Error(ferr))
			}
		}()
	}

	start := time.Now()
	responses, err := s.loader.Load(ctx, s.cfg.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	texts := survey.FreeText(responses)
	log.Info("responses loaded", zap.Int("total", len(responses)), zap.Int("free_text", len(texts)))

	rep = &report.Report{
		RunID:       runID,
		AsOf:        sentiment.CalendarDay(asOf).Format(report.DateLayout),
		GeneratedAt: s.now().UTC(),
		GroupBy:     append([]string(nil), s.cfg.GroupBy...),
		Thresholds:  report.Thresholds{Low: s.cfg.LowThreshold, High: s.cfg.HighThreshold},
		Aggregates:  []sentiment.GroupAggregate{},
		Alerts:      []sentiment.Alert{},
		DryRun:      opts.DryRun,
	}

	if len(texts) == 0 {
		rep.Status = report.StatusNoData
		log.Info("no free-text responses to analyze")
		if err := s.finish(ctx, rep, nil, persist); err != nil {
			return nil, err
		}
		return rep, nil
	}

	scored, err := s.score(ctx, texts)
	if err != nil {
		return nil, err
	}
	rep.ResponseCount = len(scored)
	for _, r := range scored {
		if r.Polarity == sentiment.Unresolved {
			rep.UnresolvedCount++
		}
	}

	result, err := s.engine.Run(scored, asOf)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if result.NoData() {
		rep.Status = report.StatusNoData
		log.Info("no resolvable polarity in responses", zap.Int("unresolved", rep.UnresolvedCount))
		if err := s.finish(ctx, rep, nil, persist); err != nil {
			return nil, err
		}
		return rep, nil
	}

	rep.Status = report.StatusCompleted
	rep.Aggregates = result.Aggregates
	rep.Alerts = result.Alerts
	rep.Summary = result.Summary
	rep.GroupCount = len(result.Aggregates)
	rep.AlertCount = len(result.Alerts)

	if err := s.finish(ctx, rep, result.History, persist); err != nil {
		return nil, err
	}

	log.Info("run completed",
		zap.Int("groups", rep.GroupCount),
		zap.Int("alerts", rep.AlertCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}

// finish archives the report, then writes history rows and the final run
// status. History is only written once the archive holds the report, so a
// failed archive leaves no trend points behind.
func (s *Service) finish(ctx context.Context, rep *report.Report, records []sentiment.HistoricalRecord, persist bool) error {
	if s.archive != nil && !rep.DryRun {
		rep.StorageRef = archive.Ref(rep.RunID)
		data, err := rep.Marshal()
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := s.archive.PutReport(ctx, rep.RunID, data); err != nil {
			rep.StorageRef = ""
			return fmt.Errorf("archive report: %w", err)
		}
	}
	if !persist {
		return nil
	}
	if len(records) > 0 {
		if err := s.history.Insert(ctx, rep.RunID, s.cfg.GroupBy, records); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
	}

	status := history.StatusCompleted
	if rep.NoData() {
		status = history.StatusNoData
	}
	run := history.RunRow{
		ID:            rep.RunID,
		Status:        status,
		ResponseCount: rep.ResponseCount,
		GroupCount:    rep.GroupCount,
		AlertCount:    rep.AlertCount,
	}
	if rep.StorageRef != "" {
		ref := rep.StorageRef
		run.StorageRef = &ref
	}
	fctx, cancel := bookkeepingContext(ctx)
	defer cancel()
	return s.history.FinishRun(fctx, run)
}

// bookkeepingTimeout bounds the final run status write.
const bookkeepingTimeout = 10 * time.Second

// bookkeepingContext detaches from ctx's cancellation so a cancelled run can
// still record its outcome.
func bookkeepingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

// score resolves every free-text answer with at most s.limit calls in
// flight. Output order matches input order.
func (s *Service) score(ctx context.Context, texts []survey.Response) ([]sentiment.ScoredResponse, error) {
	out := make([]sentiment.ScoredResponse, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, r := range texts {
		g.Go(func() error {
			p, err := s.scorer.Score(ctx, r.Answer)
			if err != nil {
				return fmt.Errorf("score response %d (employee %s): %w", i, r.EmployeeID, err)
			}
			out[i] = sentiment.ScoredResponse{
				EmployeeID: r.EmployeeID,
				Group:      r.Group,
				Kind:       r.Kind,
				Polarity:   p,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

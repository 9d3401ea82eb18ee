package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wikicrawl/internal/model"
)

// DefaultBatchConcurrency is the number of sessions run at once.
const DefaultBatchConcurrency = 4

// BatchProcessor runs one session per seed. Every session gets a fresh
// pipeline from the factory, so sessions share no crawl state.
type BatchProcessor struct {
	pipelineFactory func() *Pipeline

	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many sessions run at once. Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs a session for every seed with the same subject and
// returns the reports in seed order. An empty seed list runs one session
// whose seed is derived from the subject. Session failures are recorded in
// their reports; the returned error is only the context's.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, subject string, seeds []string) ([]*model.CrawlReport, error) {
	return bp.process(ctx, subject, seeds, nil)
}

// ProcessBatchWithCallback is ProcessBatch with a callback invoked as each
// session finishes. Callbacks may run concurrently.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	subject string,
	seeds []string,
	callback func(report *model.CrawlReport, index int),
) ([]*model.CrawlReport, error) {
	return bp.process(ctx, subject, seeds, callback)
}

func (bp *BatchProcessor) process(
	ctx context.Context,
	subject string,
	seeds []string,
	callback func(report *model.CrawlReport, index int),
) ([]*model.CrawlReport, error) {
	if len(seeds) == 0 {
		seeds = []string{""}
	}

	bp.logger.Info("starting batch",
		"sessions", len(seeds),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	reports := make([]*model.CrawlReport, len(seeds))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		report := model.NewCrawlReport(seed, subject)
		reports[i] = report

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Cancelled = true
				report.Error = err
				report.ErrorMessage = err.Error()
				return nil
			}

			if err := bp.pipelineFactory().Execute(ctx, report); err != nil {
				bp.logger.Warn("session failed",
					"seed", seed,
					"session", report.ID,
					"error", err,
				)
			}

			if callback != nil {
				callback(report, i)
			}
			return nil
		})
	}

	_ = g.Wait()

	bp.logger.Info("batch complete",
		"sessions", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return reports, ctx.Err()
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/wikicrawl/internal/crawler"
	"github.com/nao1215/wikicrawl/internal/model"
	"github.com/nao1215/wikicrawl/internal/report"
	"github.com/nao1215/wikicrawl/internal/seed"
)

// IDPlaceholder in an export path is replaced with the session ID.
const IDPlaceholder = "{id}"

// ErrNoCrawlerBuilder is returned by CrawlStep when it has no way to build a crawler.
var ErrNoCrawlerBuilder = errors.New("crawl step has no crawler builder")

// ResolveSeedStep turns the session seed into an absolute URL.
// Names are repaired into article URLs; an empty seed is derived from the subject.
type ResolveSeedStep struct {
	resolver *seed.Resolver
}

// NewResolveSeedStep creates a ResolveSeedStep.
func NewResolveSeedStep(resolver *seed.Resolver) *ResolveSeedStep {
	if resolver == nil {
		resolver = seed.NewResolver()
	}
	return &ResolveSeedStep{resolver: resolver}
}

// Name returns the step name.
func (s *ResolveSeedStep) Name() string {
	return "resolve_seed"
}

// Do resolves report.Seed into report.ResolvedSeed.
func (s *ResolveSeedStep) Do(ctx context.Context, r *model.CrawlReport) error {
	resolved, err := s.resolver.Resolve(ctx, r.Seed, r.Subject)
	if err != nil {
		return fmt.Errorf("failed to resolve seed %q: %w", r.Seed, err)
	}
	r.ResolvedSeed = resolved
	return nil
}

// CrawlerBuilder builds the crawler for one session. It receives the report
// so it can pick site rules for the seed host and key shared state by session.
type CrawlerBuilder func(r *model.CrawlReport) (*crawler.Crawler, error)

// CrawlStep runs the crawl and records its results and counters.
type CrawlStep struct {
	build  CrawlerBuilder
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets the logger of the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a CrawlStep.
func NewCrawlStep(build CrawlerBuilder, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		build:  build,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls from the resolved seed. Partial results of a cancelled crawl
// are kept in the report.
func (s *CrawlStep) Do(ctx context.Context, r *model.CrawlReport) error {
	if s.build == nil {
		return ErrNoCrawlerBuilder
	}

	c, err := s.build(r)
	if err != nil {
		return fmt.Errorf("failed to build crawler: %w", err)
	}
	r.Params = c.Params()

	seedURL := r.ResolvedSeed
	if seedURL == "" {
		seedURL = r.Seed
	}

	res, err := c.Run(ctx, seedURL, r.Subject)
	if res != nil {
		r.Finish(res.Results, res.Stats)
	}
	if err != nil {
		if ctx.Err() != nil {
			r.Cancelled = true
			s.logger.Warn("crawl interrupted, keeping partial results",
				"session", r.ID,
				"results", len(r.Results),
			)
		}
		return fmt.Errorf("crawl of %s failed: %w", seedURL, err)
	}
	return nil
}

// ExportStep writes the results as a JSON array.
// The path may contain IDPlaceholder.
type ExportStep struct {
	path string
}

// NewExportStep creates an ExportStep writing to path.
func NewExportStep(path string) *ExportStep {
	return &ExportStep{path: path}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do exports the results. It runs even after a failed or cancelled crawl,
// so the file always holds whatever was collected.
func (s *ExportStep) Do(_ context.Context, r *model.CrawlReport) error {
	path := ExportPath(s.path, r.ID)
	if err := report.Export(path, r.Results); err != nil {
		return err
	}
	r.OutputFile = path
	return nil
}

// ExportPath substitutes id for IDPlaceholder in path.
func ExportPath(path, id string) string {
	return strings.ReplaceAll(path, IDPlaceholder, id)
}

// ReportStore persists finished sessions.
type ReportStore interface {
	SaveReport(ctx context.Context, r *model.CrawlReport) error
}

// HistoryStep archives the session.
type HistoryStep struct {
	store ReportStore
}

// NewHistoryStep creates a HistoryStep.
func NewHistoryStep(store ReportStore) *HistoryStep {
	return &HistoryStep{store: store}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do saves the report.
func (s *HistoryStep) Do(ctx context.Context, r *model.CrawlReport) error {
	if err := s.store.SaveReport(ctx, r); err != nil {
		return fmt.Errorf("failed to save session %s: %w", r.ID, err)
	}
	return nil
}

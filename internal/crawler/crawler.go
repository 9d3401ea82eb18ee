package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/wikicrawl/internal/collector"
	"github.com/nao1215/wikicrawl/internal/model"
	"github.com/nao1215/wikicrawl/internal/visited"
)

// Default crawl budgets.
const (
	DefaultMaxDepth      = 1
	DefaultTolerantDepth = 1
	DefaultMaxResults    = 50
	DefaultConcurrency   = 50
)

// Progress describes one fetched page. It is passed to the ProgressFunc.
type Progress struct {
	// URL is the page that was fetched.
	URL string

	// Depth is the page's distance from the seed.
	Depth int

	// Relevant is true when the page mentions the subject.
	Relevant bool

	// Collected is the number of results collected so far.
	Collected int

	// Fetched is the number of pages fetched so far.
	Fetched int
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// Result is the outcome of one crawl session.
type Result struct {
	// Results are the matched pages in collection order.
	Results []model.PageResult

	// Stats are the session counters.
	Stats model.Stats

	// Params are the budgets and policies the session ran with.
	Params model.CrawlParams
}

// Crawler runs relevance-driven crawls over a MediaWiki-style site.
// A Crawler may run several sessions, but not concurrently when it was
// given a shared Tracker.
type Crawler struct {
	fetcher Fetcher

	// maxDepth bounds expansion through non-matching pages.
	maxDepth int

	// tolerantDepth is the hard depth cap.
	tolerantDepth int

	maxResults  int
	concurrency int

	// expand selects the expand policy over the strict policy.
	expand bool

	// anchorMatch only schedules links whose anchor text names the subject.
	anchorMatch bool

	// tracker is reused across sessions when set; otherwise each session
	// gets its own in-memory tracker.
	tracker visited.Tracker

	// extractor overrides the per-session extractor built from the seed origin.
	extractor *LinkExtractor
	rules     SiteRules

	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets the depth below which non-matching pages are still
// expanded under the expand policy.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithTolerantDepth sets the hard depth cap.
func WithTolerantDepth(depth int) Option {
	return func(c *Crawler) {
		c.tolerantDepth = depth
	}
}

// WithMaxResults caps the number of collected results.
func WithMaxResults(n int) Option {
	return func(c *Crawler) {
		c.maxResults = n
	}
}

// WithConcurrency caps in-flight fetches. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n >= 1 {
			c.concurrency = n
		}
	}
}

// WithExpandUnconditionally selects the expand policy (true) or the strict
// policy (false).
func WithExpandUnconditionally(expand bool) Option {
	return func(c *Crawler) {
		c.expand = expand
	}
}

// WithRequireAnchorMatch enables anchor-text pruning of child links.
func WithRequireAnchorMatch(require bool) Option {
	return func(c *Crawler) {
		c.anchorMatch = require
	}
}

// WithTracker sets a shared visited tracker. It is reset at the start of
// every session.
func WithTracker(t visited.Tracker) Option {
	return func(c *Crawler) {
		c.tracker = t
	}
}

// WithExtractor sets a fixed link extractor instead of one derived from the
// seed's origin.
func WithExtractor(e *LinkExtractor) Option {
	return func(c *Crawler) {
		c.extractor = e
	}
}

// WithSiteRules sets the rules used for extractors derived from the seed.
func WithSiteRules(rules SiteRules) Option {
	return func(c *Crawler) {
		c.rules = rules
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Crawler) {
		c.progress = fn
	}
}

// New creates a Crawler that fetches pages through fetcher.
func New(fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:       fetcher,
		maxDepth:      DefaultMaxDepth,
		tolerantDepth: DefaultTolerantDepth,
		maxResults:    DefaultMaxResults,
		concurrency:   DefaultConcurrency,
		expand:        true,
		rules:         DefaultSiteRules(),
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Params returns the budgets and policies the crawler runs with.
func (c *Crawler) Params() model.CrawlParams {
	return model.CrawlParams{
		MaxDepth:              c.maxDepth,
		TolerantDepth:         c.tolerantDepth,
		MaxResults:            c.maxResults,
		Concurrency:           c.concurrency,
		ExpandUnconditionally: c.expand,
		RequireAnchorMatch:    c.anchorMatch,
	}
}

// Crawl starts at seed and returns the pages mentioning subject.
// A miss on any page, the seed included, only ends that branch, so an
// unreachable seed yields an empty slice and no error.
func (c *Crawler) Crawl(ctx context.Context, seed, subject string) ([]model.PageResult, error) {
	res, err := c.Run(ctx, seed, subject)
	if res == nil {
		return nil, err
	}
	return res.Results, err
}

// Run is Crawl with session statistics.
// If ctx is cancelled, the results collected so far are returned together
// with ctx.Err().
func (c *Crawler) Run(ctx context.Context, seed, subject string) (*Result, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrEmptySubject
	}

	seedURL, err := validateSeed(seed)
	if err != nil {
		return nil, err
	}

	extractor := c.extractor
	if extractor == nil {
		extractor, err = NewLinkExtractor(seedURL.Scheme+"://"+seedURL.Host, c.rules)
		if err != nil {
			return nil, err
		}
	}

	tracker := c.tracker
	if tracker == nil {
		tracker = visited.NewMemory()
	} else if err := tracker.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset visited tracker: %w", err)
	}

	s := &session{
		Crawler:   c,
		tracker:   tracker,
		extractor: extractor,
		filter:    NewRelevanceFilter(subject, c.anchorMatch),
		collector: collector.New(c.maxResults),
		sem:       semaphore.NewWeighted(int64(c.concurrency)),
	}

	c.logger.Info("starting crawl",
		"seed", seed,
		"subject", subject,
		"policy", c.Params().Policy(),
		"max_depth", c.maxDepth,
		"tolerant_depth", c.tolerantDepth,
		"max_results", c.maxResults,
	)

	s.crawl(ctx, seedURL.String(), 0)

	res := &Result{
		Results: s.collector.Results(),
		Stats:   s.stats(),
		Params:  c.Params(),
	}

	c.logger.Info("crawl completed",
		"results", len(res.Results),
		"fetched", res.Stats.Fetched,
		"misses", res.Stats.Misses,
		"rejected", res.Stats.Rejected,
	)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func validateSeed(seed string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSeed, seed, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

// session is the shared state of one Run.
type session struct {
	*Crawler

	tracker   visited.Tracker
	extractor *LinkExtractor
	filter    *RelevanceFilter
	collector *collector.Collector
	sem       *semaphore.Weighted

	claimed  atomic.Int64
	fetched  atomic.Int64
	misses   atomic.Int64
	relevant atomic.Int64

	progressMu sync.Mutex
}

// crawl visits pageURL at depth and joins all of its descendants before
// returning. A failing branch ends silently; nothing aborts the session.
func (s *session) crawl(ctx context.Context, pageURL string, depth int) {
	if depth > 0 && depth > s.tolerantDepth {
		return
	}
	if s.collector.Full() || ctx.Err() != nil {
		return
	}

	claimed, err := s.tracker.TryClaim(ctx, pageURL)
	if err != nil {
		s.logger.Warn("visited tracker failed, dropping branch", "url", pageURL, "error", err)
		return
	}
	if !claimed {
		return
	}
	s.claimed.Add(1)

	body, ok := s.fetch(ctx, pageURL)
	if !ok {
		return
	}

	doc := ParseBytes(body)
	relevant := s.filter.MatchPage(doc.Text())
	if relevant {
		s.relevant.Add(1)
		if s.collector.TryAppend(doc.PageResult(pageURL)) {
			s.logger.Info("match", "url", pageURL, "depth", depth, "title", doc.Title())
		} else {
			s.logger.Debug("result cap reached, match dropped", "url", pageURL)
		}
	}
	s.report(pageURL, depth, relevant)

	if !relevant && !(s.expand && depth < s.maxDepth) {
		return
	}
	if depth+1 > s.tolerantDepth {
		return
	}

	var g errgroup.Group
	for _, link := range s.extractor.FromDocument(doc) {
		if s.collector.Full() {
			break
		}
		if !s.extractor.IsValid(link.URL) || !s.filter.AdmitLink(link) {
			continue
		}
		// Advisory only; TryClaim in the child is authoritative.
		if seen, err := s.tracker.Seen(ctx, link.URL); err == nil && seen {
			continue
		}
		g.Go(func() error {
			s.crawl(ctx, link.URL, depth+1)
			return nil
		})
	}
	_ = g.Wait()
}

// fetch downloads pageURL while holding one concurrency slot.
func (s *session) fetch(ctx context.Context, pageURL string) ([]byte, bool) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	body, err := s.fetcher.Fetch(ctx, pageURL)
	s.sem.Release(1)

	if err != nil {
		s.misses.Add(1)
		if errors.Is(err, ErrMiss) {
			s.logger.Debug("miss", "url", pageURL, "error", err)
		} else {
			s.logger.Warn("fetch failed", "url", pageURL, "error", err)
		}
		return nil, false
	}
	s.fetched.Add(1)
	return body, true
}

func (s *session) report(pageURL string, depth int, relevant bool) {
	if s.progress == nil {
		return
	}
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	s.progress(Progress{
		URL:       pageURL,
		Depth:     depth,
		Relevant:  relevant,
		Collected: s.collector.Len(),
		Fetched:   int(s.fetched.Load()),
	})
}

func (s *session) stats() model.Stats {
	return model.Stats{
		Claimed:  int(s.claimed.Load()),
		Fetched:  int(s.fetched.Load()),
		Misses:   int(s.misses.Load()),
		Relevant: int(s.relevant.Load()),
		Rejected: s.collector.Rejected(),
	}
}

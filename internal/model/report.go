package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Crawl policy names as recorded in reports and the history archive.
const (
	// PolicyExpand keeps expanding below MaxDepth even when a page does not match.
	PolicyExpand = "expand"

	// PolicyStrict stops a branch as soon as a page does not match.
	PolicyStrict = "strict"
)

// CrawlParams are the budgets and policies a session ran with.
type CrawlParams struct {
	// MaxDepth is the depth below which non-matching pages are still expanded
	// (only when ExpandUnconditionally is set).
	MaxDepth int `json:"max_depth"`

	// TolerantDepth is the hard depth cap; no page deeper than this is fetched.
	TolerantDepth int `json:"tolerant_depth"`

	// MaxResults caps the number of collected results.
	MaxResults int `json:"max_results"`

	// Concurrency caps in-flight fetches for the session.
	Concurrency int `json:"concurrency"`

	// ExpandUnconditionally selects PolicyExpand over PolicyStrict.
	ExpandUnconditionally bool `json:"expand_unconditionally"`

	// RequireAnchorMatch only schedules links whose anchor text mentions the subject.
	RequireAnchorMatch bool `json:"require_anchor_match"`
}

// Policy returns PolicyExpand or PolicyStrict, suffixed with "+anchor" when
// anchor-text pruning is enabled.
func (p CrawlParams) Policy() string {
	name := PolicyStrict
	if p.ExpandUnconditionally {
		name = PolicyExpand
	}
	if p.RequireAnchorMatch {
		name += "+anchor"
	}
	return name
}

// Stats are the counters of one crawl session.
type Stats struct {
	// Claimed is the number of URLs claimed through the visited tracker.
	Claimed int `json:"claimed"`

	// Fetched is the number of successful fetches.
	Fetched int `json:"fetched"`

	// Misses is the number of fetches that failed (status, timeout, network).
	Misses int `json:"misses"`

	// Relevant is the number of fetched pages that matched the subject.
	Relevant int `json:"relevant"`

	// Rejected is the number of matched pages dropped because the result cap was reached.
	Rejected int `json:"rejected"`
}

// Unmatched returns the number of fetched pages that did not match the subject.
func (s Stats) Unmatched() int {
	return s.Fetched - s.Relevant
}

// CrawlReport is the envelope of one crawl session.
// It is filled progressively by the pipeline steps and written by the
// report writers and the history archive.
type CrawlReport struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Seed is the seed URL as supplied by the caller.
	Seed string `json:"seed"`

	// ResolvedSeed is the seed after repair; equal to Seed when it was valid.
	ResolvedSeed string `json:"resolved_seed,omitempty"`

	// Subject is the topical keyword.
	Subject string `json:"subject"`

	// Params are the budgets and policies of the session.
	Params CrawlParams `json:"params"`

	// StartedAt is when the session was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl converged. Zero while running.
	FinishedAt time.Time `json:"finished_at"`

	// Results are the matched pages in collector order.
	Results []PageResult `json:"results"`

	// Stats are the session counters.
	Stats Stats `json:"stats"`

	// OutputFile is the path the results were exported to, if any.
	OutputFile string `json:"output_file,omitempty"`

	// Cancelled is true when the caller's context ended the crawl early.
	Cancelled bool `json:"cancelled,omitempty"`

	// Error holds the error that stopped the session, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewCrawlReport creates a report for a new session with a fresh ID.
func NewCrawlReport(seed, subject string) *CrawlReport {
	return &CrawlReport{
		ID:        uuid.NewString(),
		Seed:      seed,
		Subject:   subject,
		StartedAt: time.Now(),
		Results:   make([]PageResult, 0),
	}
}

// Finish records the results and counters of a converged crawl.
func (r *CrawlReport) Finish(results []PageResult, stats Stats) {
	if results == nil {
		results = make([]PageResult, 0)
	}
	r.Results = results
	r.Stats = stats
	r.FinishedAt = time.Now()
}

// Duration returns how long the crawl ran. Zero while it is still running.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasResults reports whether at least one page matched.
func (r *CrawlReport) HasResults() bool {
	return len(r.Results) > 0
}

// Summary renders the first result the way the calling agent consumes it.
func (r *CrawlReport) Summary() string {
	if !r.HasResults() {
		return fmt.Sprintf("No information found about '%s'.", r.Subject)
	}
	first := r.Results[0]
	snippet := first.Snippet
	if snippet == "" {
		snippet = "No description."
	}
	return fmt.Sprintf("%s (%s)\nSnippet: %s", first.Title, first.URL, snippet)
}

// Package crawler implements the subject-directed crawl of a MediaWiki-style
// site.
//
// # Architecture
//
// A Crawler is configured once and runs one session per Crawl call. A
// session walks the outward link graph recursively from the seed: every URL
// is claimed through a visited.Tracker, fetched under a shared concurrency
// limit, parsed once into a Document, tested for relevance, and, depending on
// the policy, expanded into its article links. Each parent joins all of its
// children before returning, so Crawl returns only when the whole fan-out has
// converged.
//
// # Components
//
//   - Crawler: the recursive, concurrency-bounded driver
//   - Fetcher / HTTPFetcher: one GET with a per-request timeout
//   - Document: a parsed page (title, first paragraph, text, anchors)
//   - LinkExtractor: structural allow/deny filtering of article links
//   - RelevanceFilter: case-insensitive subject matching
//
// # Policies
//
// ExpandUnconditionally keeps expanding non-matching pages while the depth is
// below MaxDepth, which lets the crawl tunnel through hub pages. Without it a
// non-matching page ends its branch. RequireAnchorMatch additionally drops
// links whose anchor text does not mention the subject.
//
// # Usage
//
//	c := crawler.New(crawler.NewHTTPFetcher(nil), crawler.WithMaxResults(10))
//	results, err := c.Crawl(ctx, "https://en.wikipedia.org/wiki/Romania", "president")
package crawler

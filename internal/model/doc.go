// Package model defines the data structures shared by the crawler, the
// report writers and the history archive.
//
// This package contains the following main types:
//   - PageResult: a page that matched the crawl subject
//   - Link: an outbound article link found on a page
//   - CrawlReport: the envelope of one crawl session
//
// The models are serializable to JSON for export and database storage.
package model

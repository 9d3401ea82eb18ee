// Package report writes crawl results.
//
// Export writes the plain JSON array of matched pages that downstream tools
// consume. The Writer implementations render a whole model.CrawlReport for
// people:
//   - SimpleWriter: text for the terminal
//   - JSONWriter: the full report as JSON
//   - MarkdownWriter: GitHub Flavored Markdown with a mermaid pie chart
package report

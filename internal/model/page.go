package model

// DefaultTitle is used when a matched page has no <title> element.
const DefaultTitle = "No title"

// PageResult is a page whose text contains the crawl subject.
// It is immutable once appended to a collector.
type PageResult struct {
	// URL is the absolute URL the page was fetched from.
	URL string `json:"url"`

	// Title is the text of the <title> element, or DefaultTitle.
	Title string `json:"title"`

	// Snippet is the stripped text of the first <p> element.
	// Empty when the page has no paragraph.
	Snippet string `json:"snippet"`
}

// NewPageResult builds a PageResult, substituting DefaultTitle for an empty title.
func NewPageResult(pageURL, title, snippet string) PageResult {
	if title == "" {
		title = DefaultTitle
	}
	return PageResult{
		URL:     pageURL,
		Title:   title,
		Snippet: snippet,
	}
}

// Link is an outbound link produced by the link extractor.
// Links are consumed immediately by the crawler and never persisted.
type Link struct {
	// Text is the stripped visible text of the anchor.
	Text string `json:"text"`

	// URL is the absolute URL of the link target.
	URL string `json:"url"`
}

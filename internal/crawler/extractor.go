package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/wikicrawl/internal/model"
)

// SiteRules describe the path conventions of a MediaWiki-style site.
type SiteRules struct {
	// ArticlePrefix is the path every article link starts with.
	ArticlePrefix string

	// RootPath is the landing page. Links to it are skipped.
	RootPath string

	// NamespaceSeparator marks non-article namespaces (Help:, Talk:, ...).
	NamespaceSeparator string

	// Denylist holds lowercase path fragments that disqualify a link.
	Denylist []string

	// MinAnchorText is the minimum visible anchor text length, in runes.
	MinAnchorText int
}

// DefaultSiteRules returns rules matching Wikipedia.
func DefaultSiteRules() SiteRules {
	return SiteRules{
		ArticlePrefix:      "/wiki/",
		RootPath:           "/wiki/Main_Page",
		NamespaceSeparator: ":",
		Denylist:           []string{"portal", "template", "help", "category", "talk", "file", "main_page"},
		MinAnchorText:      3,
	}
}

// LinkExtractor selects article links from a page and makes them absolute.
type LinkExtractor struct {
	origin *url.URL
	rules  SiteRules
}

// NewLinkExtractor creates a LinkExtractor for the site at origin
// (scheme and host, e.g. "https://en.wikipedia.org").
func NewLinkExtractor(origin string, rules SiteRules) (*LinkExtractor, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOrigin, origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrigin, origin)
	}

	rules.Denylist = lowerAll(rules.Denylist)

	return &LinkExtractor{
		origin: &url.URL{Scheme: u.Scheme, Host: u.Host},
		rules:  rules,
	}, nil
}

// Origin returns the scheme and host links are resolved against.
func (e *LinkExtractor) Origin() string {
	return e.origin.String()
}

// Rules returns the site rules in effect.
func (e *LinkExtractor) Rules() SiteRules {
	return e.rules
}

// Extract parses r and returns its article links.
func (e *LinkExtractor) Extract(r io.Reader) ([]model.Link, error) {
	doc, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return e.FromDocument(doc), nil
}

// FromDocument returns the article links of doc in document order.
// Duplicates are kept.
func (e *LinkExtractor) FromDocument(doc *Document) []model.Link {
	var links []model.Link
	for _, a := range doc.anchors() {
		if utf8.RuneCountInString(a.text) < e.rules.MinAnchorText {
			continue
		}
		if a.href == "" || strings.HasPrefix(a.href, "#") {
			continue
		}
		abs, ok := e.resolve(a.href)
		if !ok {
			continue
		}
		links = append(links, model.Link{Text: a.text, URL: abs})
	}
	return links
}

// IsValid reports whether absURL points to an article on this site.
func (e *LinkExtractor) IsValid(absURL string) bool {
	u, err := url.Parse(absURL)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Host, e.origin.Host) {
		return false
	}
	return e.validPath(u)
}

func (e *LinkExtractor) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := e.origin.ResolveReference(ref)
	if !strings.EqualFold(u.Host, e.origin.Host) {
		return "", false
	}
	if !e.validPath(u) {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

func (e *LinkExtractor) validPath(u *url.URL) bool {
	path := u.Path
	if !strings.HasPrefix(path, e.rules.ArticlePrefix) {
		return false
	}
	if e.rules.NamespaceSeparator != "" && strings.Contains(path, e.rules.NamespaceSeparator) {
		return false
	}
	if e.rules.RootPath != "" && path == e.rules.RootPath {
		return false
	}
	lower := strings.ToLower(path)
	for _, bad := range e.rules.Denylist {
		if bad != "" && strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

package crawler

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/wikicrawl/internal/model"
)

// Document is a parsed HTML page.
// Parsing never fails on malformed markup; x/net/html recovers the way
// browsers do, so a broken page yields an empty-but-usable Document.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses HTML from r.
// Only read errors are returned.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// ParseBytes parses an in-memory HTML body. An unreadable body yields an
// empty Document.
func ParseBytes(body []byte) *Document {
	d, err := ParseDocument(bytes.NewReader(body))
	if err != nil {
		return emptyDocument()
	}
	return d
}

func emptyDocument() *Document {
	root := &html.Node{Type: html.DocumentNode}
	return &Document{doc: goquery.NewDocumentFromNode(root)}
}

// Title returns the trimmed text of the first <title> element, or "".
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Snippet returns the text of the first <p> element with runs of
// whitespace collapsed to single spaces, or "" when there is none.
func (d *Document) Snippet() string {
	return collapseSpace(d.doc.Find("p").First().Text())
}

// Text returns the visible text of the whole document.
func (d *Document) Text() string {
	return d.doc.Text()
}

// PageResult builds the record for a matched page.
func (d *Document) PageResult(pageURL string) model.PageResult {
	return model.NewPageResult(pageURL, d.Title(), d.Snippet())
}

// anchor is one <a href> element in document order.
type anchor struct {
	href string
	text string
}

// anchors returns every anchor carrying an href attribute, in document order.
func (d *Document) anchors() []anchor {
	var out []anchor
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		out = append(out, anchor{href: href, text: strings.TrimSpace(s.Text())})
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package crawler

import (
	"strings"
	"testing"

	"github.com/nao1215/wikicrawl/internal/model"
)

// TestDocument tests title and snippet extraction.
func TestDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		html        string
		wantTitle   string
		wantSnippet string
	}{
		{
			name:        "title and first paragraph",
			html:        "<html><head><title> Romania - Wikipedia </title></head><body><p>Romania is a\n  country.</p><p>Second.</p></body></html>",
			wantTitle:   "Romania - Wikipedia",
			wantSnippet: "Romania is a country.",
		},
		{
			name:        "nested inline markup",
			html:        "<p><b>Romania</b> is in <a href=\"/wiki/Europe\">Europe</a>.</p>",
			wantTitle:   "",
			wantSnippet: "Romania is in Europe.",
		},
		{
			name:        "empty document",
			html:        "",
			wantTitle:   "",
			wantSnippet: "",
		},
		{
			name:        "malformed markup",
			html:        "<html><title>Broken<p>unterminated",
			wantTitle:   "Broken<p>unterminated",
			wantSnippet: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := ParseDocument(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := doc.Title(); got != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
			}
			if got := doc.Snippet(); got != tt.wantSnippet {
				t.Errorf("Snippet() = %q, want %q", got, tt.wantSnippet)
			}
		})
	}
}

// TestDocumentPageResult tests placeholder substitution.
func TestDocumentPageResult(t *testing.T) {
	t.Parallel()

	got := ParseBytes([]byte("just text")).PageResult("https://en.wikipedia.org/wiki/X")
	want := model.PageResult{URL: "https://en.wikipedia.org/wiki/X", Title: model.DefaultTitle}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if text := ParseBytes([]byte("<p>a</p><div>b</div>")).Text(); text != "ab" {
		t.Errorf("Text() = %q, want %q", text, "ab")
	}
}

package crawler

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/wikicrawl/internal/model"
)

func newTestExtractor(t *testing.T) *LinkExtractor {
	t.Helper()

	e, err := NewLinkExtractor("https://en.wikipedia.org", DefaultSiteRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

// TestLinkExtractor tests article link selection.
func TestLinkExtractor(t *testing.T) {
	t.Parallel()

	t.Run("keeps only article links", func(t *testing.T) {
		t.Parallel()

		fixture := `<html><body>
<a href="/wiki/Help:Contents">Help contents</a>
<a href="/wiki/Talk:X">Talk page</a>
<a href="/wiki/Main_Page">Main page</a>
<a href="#">Jump to top</a>
<a href="/wiki/Romania">Romania</a>
</body></html>`

		links, err := newTestExtractor(t).Extract(strings.NewReader(fixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []model.Link{{Text: "Romania", URL: "https://en.wikipedia.org/wiki/Romania"}}
		if len(links) != 1 || links[0] != want[0] {
			t.Errorf("got %+v, want %+v", links, want)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			anchor string
		}{
			{"outside article path", `<a href="/w/index.php?title=Romania">Romania</a>`},
			{"namespace", `<a href="/wiki/Special:Random">Random article</a>`},
			{"denylisted portal", `<a href="/wiki/Portal_Europe">Portal Europe</a>`},
			{"denylisted any case", `<a href="/wiki/TEMPLATE_Box">Template box</a>`},
			{"root path", `<a href="/wiki/Main_Page">Main</a>`},
			{"fragment", `<a href="#cite-1">Citation</a>`},
			{"short text", `<a href="/wiki/Romania">Ro</a>`},
			{"icon only", `<a href="/wiki/Romania"><img src="x.png"></a>`},
			{"missing href", `<a name="Romania">Romania</a>`},
			{"other host", `<a href="https://de.wikipedia.org/wiki/Rum%C3%A4nien">Rumänien</a>`},
			{"encoded namespace", `<a href="/wiki/Help%3AContents">Contents</a>`},
		}

		e := newTestExtractor(t)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				links, err := e.Extract(strings.NewReader(tt.anchor))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(links) != 0 {
					t.Errorf("expected no links, got %+v", links)
				}
			})
		}
	})

	t.Run("document order without dedup", func(t *testing.T) {
		t.Parallel()

		fixture := `<a href="/wiki/Bucharest">Bucharest</a>
<a href="https://en.wikipedia.org/wiki/Romania#History"> Romania </a>
<a href="/wiki/Bucharest">the capital</a>`

		links, err := newTestExtractor(t).Extract(strings.NewReader(fixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []model.Link{
			{Text: "Bucharest", URL: "https://en.wikipedia.org/wiki/Bucharest"},
			{Text: "Romania", URL: "https://en.wikipedia.org/wiki/Romania"},
			{Text: "the capital", URL: "https://en.wikipedia.org/wiki/Bucharest"},
		}
		if len(links) != len(want) {
			t.Fatalf("got %d links, want %d", len(links), len(want))
		}
		for i := range want {
			if links[i] != want[i] {
				t.Errorf("link %d = %+v, want %+v", i, links[i], want[i])
			}
		}
	})

	t.Run("custom rules", func(t *testing.T) {
		t.Parallel()

		rules := SiteRules{
			ArticlePrefix:      "/page/",
			RootPath:           "/page/Home",
			NamespaceSeparator: ":",
			Denylist:           []string{"Admin"},
			MinAnchorText:      1,
		}
		e, err := NewLinkExtractor("http://fandom.test", rules)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		links, err := e.Extract(strings.NewReader(`
<a href="/page/Home">Home</a>
<a href="/page/admin_tools">Tools</a>
<a href="/wiki/Romania">Romania</a>
<a href="/page/X">X</a>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 1 || links[0].URL != "http://fandom.test/page/X" {
			t.Errorf("unexpected links %+v", links)
		}
	})

	t.Run("root path must match exactly", func(t *testing.T) {
		t.Parallel()

		rules := SiteRules{
			ArticlePrefix:      "/wiki/",
			RootPath:           "/wiki/Home",
			NamespaceSeparator: ":",
			MinAnchorText:      3,
		}
		e, err := NewLinkExtractor("https://wiki.test", rules)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		links, err := e.Extract(strings.NewReader(`<a href="/wiki/Home">Home page</a><a href="/wiki/Homer">Homer poet</a>`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 1 || links[0].URL != "https://wiki.test/wiki/Homer" {
			t.Errorf("got %+v, want only /wiki/Homer", links)
		}
		if !e.IsValid("https://wiki.test/wiki/Homer") || e.IsValid("https://wiki.test/wiki/Home") {
			t.Error("IsValid should reject only the exact root path")
		}
	})
}

// TestLinkExtractorIsValid tests structural URL validation.
func TestLinkExtractorIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://en.wikipedia.org/wiki/Romania", true},
		{"https://EN.wikipedia.org/wiki/Romania", true},
		{"https://en.wikipedia.org/wiki/Main_Page", false},
		{"https://en.wikipedia.org/wiki/Help:Contents", false},
		{"https://en.wikipedia.org/w/index.php", false},
		{"https://fr.wikipedia.org/wiki/Roumanie", false},
		{"://bad", false},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			if got := e.IsValid(tt.url); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// TestNewLinkExtractor tests origin validation.
func TestNewLinkExtractor(t *testing.T) {
	t.Parallel()

	for _, origin := range []string{"", "en.wikipedia.org", "/wiki/", "://x"} {
		if _, err := NewLinkExtractor(origin, DefaultSiteRules()); !errors.Is(err, ErrInvalidOrigin) {
			t.Errorf("NewLinkExtractor(%q): expected ErrInvalidOrigin, got %v", origin, err)
		}
	}

	e, err := NewLinkExtractor("https://en.wikipedia.org/wiki/Romania?x=1", DefaultSiteRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Origin() != "https://en.wikipedia.org" {
		t.Errorf("expected origin to drop the path, got %q", e.Origin())
	}
}

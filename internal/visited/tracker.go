package visited

import (
	"context"
	"net/url"
	"strings"
)

// Tracker is the claim set of a crawl session.
type Tracker interface {
	// TryClaim marks the URL visited and returns true iff it was not visited yet.
	// It is a single test-and-set: two concurrent callers for the same URL
	// never both receive true.
	TryClaim(ctx context.Context, pageURL string) (bool, error)

	// Seen reports whether the URL has been claimed. The answer may be stale by
	// the time the caller acts on it; use TryClaim to take ownership.
	Seen(ctx context.Context, pageURL string) (bool, error)

	// Reset forgets every claim. Called at the start of a session.
	Reset(ctx context.Context) error

	// Len returns the number of claimed URLs.
	Len(ctx context.Context) (int, error)
}

// Canonical returns the form under which a URL is claimed.
// The fragment is dropped, scheme and host are lower-cased, and an empty path
// becomes "/". Unparseable input is returned unchanged.
func Canonical(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// Package seed turns whatever the user supplied as a starting point into an
// absolute article URL.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnrepairable is returned when neither the seed nor the subject can be
// turned into an article URL.
var ErrUnrepairable = errors.New("cannot build a seed URL: no seed and no subject")

// Defaults for Wikipedia.
const (
	DefaultOrigin        = "https://en.wikipedia.org"
	DefaultArticlePrefix = "/wiki/"
	DefaultAPIPath       = "/w/api.php"
	DefaultTimeout       = 5 * time.Second
)

// Resolver repairs seeds.
type Resolver struct {
	origin        string
	articlePrefix string
	apiPath       string

	// search asks the opensearch API before falling back to a built URL.
	search bool

	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOrigin sets the scheme and host used for built URLs.
func WithOrigin(origin string) Option {
	return func(r *Resolver) {
		r.origin = strings.TrimRight(origin, "/")
	}
}

// WithArticlePrefix sets the article path prefix.
func WithArticlePrefix(prefix string) Option {
	return func(r *Resolver) {
		r.articlePrefix = prefix
	}
}

// WithAPIPath sets the path of the MediaWiki API endpoint.
func WithAPIPath(path string) Option {
	return func(r *Resolver) {
		r.apiPath = path
	}
}

// WithSearch enables the opensearch lookup.
func WithSearch(enabled bool) Option {
	return func(r *Resolver) {
		r.search = enabled
	}
}

// WithHTTPClient sets the client used for the opensearch lookup.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver for Wikipedia unless configured otherwise.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		origin:        DefaultOrigin,
		articlePrefix: DefaultArticlePrefix,
		apiPath:       DefaultAPIPath,
		client:        &http.Client{},
		timeout:       DefaultTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns an absolute seed URL.
//
// An absolute http(s) seed is returned unchanged. Otherwise, when search is
// enabled, the first opensearch hit for the subject wins. Failing that, the
// seed (or, if empty, the subject) is treated as an article name.
func (r *Resolver) Resolve(ctx context.Context, seed, subject string) (string, error) {
	seed = strings.TrimSpace(seed)
	subject = strings.TrimSpace(subject)

	if IsAbsolute(seed) {
		return seed, nil
	}

	if r.search {
		term := subject
		if term == "" {
			term = seed
		}
		if term != "" {
			found, err := r.Search(ctx, term)
			switch {
			case err != nil:
				r.logger.Warn("opensearch lookup failed, building seed from name", "term", term, "error", err)
			case found != "":
				r.logger.Debug("seed found by opensearch", "term", term, "url", found)
				return found, nil
			}
		}
	}

	name := seed
	if name == "" {
		name = subject
	}
	if name == "" {
		return "", ErrUnrepairable
	}
	return r.ArticleURL(name), nil
}

// ArticleURL builds the URL of the article called name.
func (r *Resolver) ArticleURL(name string) string {
	segments := strings.Split(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return r.origin + r.articlePrefix + strings.Join(segments, "/")
}

// Search asks the opensearch API for term and returns the first article URL,
// or "" when there is no hit.
func (r *Resolver) Search(ctx context.Context, term string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("action", "opensearch")
	q.Set("search", term)
	q.Set("limit", "1")
	q.Set("format", "json")
	endpoint := r.origin + r.apiPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read search response: %w", err)
	}

	// [term, [titles], [descriptions], [urls]]
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(parts) < 4 {
		return "", fmt.Errorf("unexpected search response with %d parts", len(parts))
	}

	var urls []string
	if err := json.Unmarshal(parts[3], &urls); err != nil {
		return "", fmt.Errorf("failed to decode search urls: %w", err)
	}
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// IsAbsolute reports whether s is an absolute http(s) URL with a host.
func IsAbsolute(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

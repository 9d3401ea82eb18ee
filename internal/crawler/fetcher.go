package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the HTML of one page.
// Any returned error is a miss: the caller stops that branch.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// DefaultFetchTimeout is the per-request timeout.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodySize limits how much of a response body is read.
const DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// HTTPFetcher is a Fetcher that issues one GET per call, without retry.
type HTTPFetcher struct {
	// client performs the requests.
	client *http.Client

	// timeout bounds each request, including reading the body.
	timeout time.Duration

	// userAgent is sent when non-empty.
	userAgent string

	// maxBodySize truncates larger responses.
	maxBodySize int64

	// limiter paces requests when set. Nil means unpaced.
	limiter *rate.Limiter

	logger *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithRateLimit paces requests to perSecond with the given burst.
// A non-positive perSecond leaves requests unpaced.
func WithRateLimit(perSecond float64, burst int) FetcherOption {
	return func(f *HTTPFetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithFetchLogger sets the logger used for miss diagnostics.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses a fresh http.Client.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}

	f := &HTTPFetcher{
		client:      client,
		timeout:     DefaultFetchTimeout,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch implements Fetcher. It returns the body decoded to UTF-8, or an
// error wrapping ErrMiss on any network error, timeout or non-200 status.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMiss, pageURL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMiss, pageURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMiss, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: status %d", ErrMiss, pageURL, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.maxBodySize > 0 {
		body = io.LimitReader(resp.Body, f.maxBodySize)
	}

	decoded, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		f.logger.Debug("unknown charset, reading raw body", "url", pageURL, "error", err)
		decoded = body
	}

	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMiss, pageURL, err)
	}

	return data, nil
}

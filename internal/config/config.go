package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wikicrawl"

	// DefaultMaxDepth is the depth below which pages that do not mention the
	// subject are still expanded. 1 lets the crawl look one hop past the seed.
	DefaultMaxDepth = 1

	// DefaultTolerantDepth is the hard depth cap. Pages deeper than this are
	// never fetched.
	DefaultTolerantDepth = 1

	// DefaultMaxResults caps the number of collected pages per session.
	DefaultMaxResults = 50

	// DefaultConcurrency caps in-flight fetches per session.
	DefaultConcurrency = 50

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultBatchSize is the number of seeds crawled concurrently.
	DefaultBatchSize = 4

	// DefaultRedisDB is the Redis logical database used for the visited set.
	DefaultRedisDB = 0
)

// DefaultUserAgent identifies wikicrawl in HTTP requests. MediaWiki sites
// ask clients to send a descriptive User-Agent.
var DefaultUserAgent = "wikicrawl/dev (+https://github.com/nao1215/wikicrawl)"

// Config holds all configuration options for wikicrawl.
// It is populated from CLI flags, the environment and the .wikicrawl file,
// and passed through the application rather than kept in global state.
type Config struct {
	// Seeds are the starting points. Each is an absolute URL or an article
	// name; an empty list means "derive the seed from the subject".
	Seeds []string

	// Subject is the keyword a page must mention to be collected.
	Subject string

	// MaxDepth is the depth below which non-matching pages are expanded
	// when ExpandUnconditionally is set.
	MaxDepth int

	// TolerantDepth is the hard depth cap.
	TolerantDepth int

	// MaxResults caps the number of collected pages per session.
	MaxResults int

	// Concurrency caps in-flight fetches per session.
	Concurrency int

	// ExpandUnconditionally selects the expand policy. --strict clears it.
	ExpandUnconditionally bool

	// RequireAnchorMatch only follows links whose anchor text names the subject.
	RequireAnchorMatch bool

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// RateLimit paces requests per second. 0 disables pacing.
	RateLimit float64

	// Search asks the MediaWiki opensearch API for a seed when none is given.
	Search bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual places.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// JSONReport prints the full crawl report as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the crawl report as GitHub Flavored Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// OutputFile is the path of the exported JSON array of results.
	// Empty means no export.
	OutputFile string

	// RedisAddr selects the Redis-backed visited tracker when set.
	RedisAddr string

	// RedisPassword authenticates to Redis.
	RedisPassword string

	// RedisDB is the Redis logical database.
	RedisDB int

	// DBDir is the directory of the history database.
	// Defaults to XDG data directory (~/.local/share/wikicrawl on Linux).
	DBDir string

	// SaveToDB records finished sessions in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:              DefaultMaxDepth,
		TolerantDepth:         DefaultTolerantDepth,
		MaxResults:            DefaultMaxResults,
		Concurrency:           DefaultConcurrency,
		ExpandUnconditionally: true,
		Timeout:               DefaultTimeout,
		MaxBodySize:           DefaultMaxBodySize,
		UserAgent:             DefaultUserAgent,
		BatchSize:             DefaultBatchSize,
		RedisDB:               DefaultRedisDB,
		DBDir:                 XDGDataDir(),
		SaveToDB:              true,
	}
}

// XDGDataDir returns the XDG data directory for wikicrawl.
// On Linux: ~/.local/share/wikicrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikicrawl.
// On Linux: ~/.config/wikicrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 && c.Subject == "" {
		return ErrNoSeed
	}

	if c.Subject == "" {
		return ErrNoSubject
	}

	if c.MaxDepth < 0 || c.TolerantDepth < 0 {
		return ErrInvalidDepth
	}

	if c.MaxResults < 1 {
		return ErrInvalidMaxResults
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RedisDB < 0 {
		return ErrInvalidRedisDB
	}

	return nil
}

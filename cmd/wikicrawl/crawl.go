package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nao1215/wikicrawl/internal/config"
	"github.com/nao1215/wikicrawl/internal/crawler"
	"github.com/nao1215/wikicrawl/internal/database"
	wclog "github.com/nao1215/wikicrawl/internal/log"
	"github.com/nao1215/wikicrawl/internal/model"
	"github.com/nao1215/wikicrawl/internal/pipeline"
	"github.com/nao1215/wikicrawl/internal/report"
	"github.com/nao1215/wikicrawl/internal/seed"
	"github.com/nao1215/wikicrawl/internal/visited"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl a wiki for pages about a subject",
		Long: `Crawl starts at each seed article and follows article links, collecting
every page whose text mentions the subject (case-insensitive).

A page at depth d is fetched only when d <= --tolerant-depth. Links of a page
that does not mention the subject are followed only while d < --max-depth,
and not at all with --strict. Each seed runs as its own session.

A seed that is not an absolute URL is treated as an article name. Without
seeds the subject itself names the start article.

Examples:
  # Crawl from an article
  wikicrawl crawl --subject "Danube" https://en.wikipedia.org/wiki/Romania

  # Start from the subject's own article and save the results
  wikicrawl crawl --subject Bucharest -o results.json

  # Several seeds, at most 2 sessions at a time, Markdown report
  wikicrawl crawl -s Danube -b 2 -m Romania Serbia Hungary

  # Share the visited set through Redis and pace requests
  wikicrawl crawl -s Danube --redis localhost:6379 --rate 5 Romania`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl budget flags
	cmd.Flags().StringP("subject", "s", "", "Subject keyword pages must mention (required)")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Depth below which non-matching pages are still expanded")
	cmd.Flags().IntP("tolerant-depth", "t", config.DefaultTolerantDepth,
		"Hard depth cap; no page deeper than this is fetched")
	cmd.Flags().IntP("max-results", "n", config.DefaultMaxResults,
		"Maximum number of results per session")
	cmd.Flags().IntP("concurrency", "C", config.DefaultConcurrency,
		"Maximum number of in-flight fetches per session")
	cmd.Flags().Bool("strict", false,
		"Only expand pages that mention the subject")
	cmd.Flags().Bool("anchor-match", false,
		"Only follow links whose anchor text mentions the subject")

	// Fetch flags
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second per session (0 = unlimited)")
	cmd.Flags().String("user-agent", userAgent(), "User-Agent header sent with every request")
	cmd.Flags().Bool("search", false, "Resolve seed names through the wiki search API")

	// Session flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of concurrent sessions")
	cmd.Flags().String("redis", "", "Redis address for the visited set (env "+config.EnvRedisAddr+")")
	cmd.Flags().Bool("no-history", false, "Do not archive sessions in the history database")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikicrawl in current or home directory)")

	// Report flags
	cmd.Flags().StringP("output", "o", "",
		"Write the results as a JSON array to this path ("+pipeline.IDPlaceholder+" is replaced by the session ID)")
	cmd.Flags().BoolP("json", "j", false,
		"Print a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print a Markdown report (mutually exclusive with --json)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := config.LoadEnv(); err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := wclog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, keeping partial results")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := newProgressIndicator(cmd.ErrOrStderr(), !cfg.Verbose)
	return runCrawl(ctx, cfg, logger, progress, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Subject, err = flags.GetString("subject"); err != nil {
		return nil, err
	}
	cfg.Subject = strings.TrimSpace(cfg.Subject)
	if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.TolerantDepth, err = flags.GetInt("tolerant-depth"); err != nil {
		return nil, err
	}
	if cfg.MaxResults, err = flags.GetInt("max-results"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	strict, err := flags.GetBool("strict")
	if err != nil {
		return nil, err
	}
	cfg.ExpandUnconditionally = !strict
	if cfg.RequireAnchorMatch, err = flags.GetBool("anchor-match"); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Search, err = flags.GetBool("search"); err != nil {
		return nil, err
	}

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.RedisAddr, err = flags.GetString("redis"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}
	applyDefaultDepths(cmd, cfg)

	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Seeds = args

	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicitly requested
// file must exist; otherwise a missing file yields an empty configuration.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, nil
}

// applyDefaultDepths takes the depth budgets from the configuration file's
// defaults unless they were given on the command line.
func applyDefaultDepths(cmd *cobra.Command, cfg *config.Config) {
	defaults := cfg.SiteConfigs.Defaults
	if defaults.MaxDepth != nil && !cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth = *defaults.MaxDepth
	}
	if defaults.TolerantDepth != nil && !cmd.Flags().Changed("tolerant-depth") {
		cfg.TolerantDepth = *defaults.TolerantDepth
	}
}

// runCrawl runs one session per seed and prints a report for each.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress *progressIndicator, out io.Writer) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"subject", cfg.Subject,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	if cfg.SiteConfigs == nil {
		cfg.SiteConfigs = &config.File{}
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "path", db.Path())
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		var err error
		rdb, err = visited.Dial(ctx, visited.RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		defer rdb.Close()
		logger.Info("redis visited set enabled", "address", cfg.RedisAddr)
	}

	client := &http.Client{}
	resolver := newResolver(cfg, client, logger)

	build := func(r *model.CrawlReport) (*crawler.Crawler, error) {
		site := cfg.SiteConfigs.SiteFor(hostOf(r.ResolvedSeed))
		opts := crawlerOptions(cfg, site, logger)
		opts = append(opts, crawler.WithProgress(progress.Update))
		if rdb != nil {
			opts = append(opts, crawler.WithTracker(visited.NewRedis(rdb, r.ID)))
		}
		fetcher := crawler.NewHTTPFetcher(client,
			crawler.WithTimeout(cfg.Timeout),
			crawler.WithUserAgent(cfg.UserAgent),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithRateLimit(cfg.RateLimit, 1),
			crawler.WithFetchLogger(logger),
		)
		return crawler.New(fetcher, opts...), nil
	}

	exportPath := exportPathFor(cfg.OutputFile, len(cfg.Seeds))
	factory := func() *pipeline.Pipeline {
		p := pipeline.New(pipeline.WithLogger(logger))
		p.AddSteps(
			pipeline.NewResolveSeedStep(resolver),
			pipeline.NewCrawlStep(build, pipeline.WithCrawlLogger(logger)),
		)
		if exportPath != "" {
			p.AddFinalizers(pipeline.NewExportStep(exportPath))
		}
		if db != nil {
			p.AddFinalizers(pipeline.NewHistoryStep(db))
		}
		return p
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	progress.Start()
	reports, batchErr := bp.ProcessBatch(ctx, cfg.Subject, cfg.Seeds)
	progress.Stop()
	logger.Info("crawl finished", "sessions", len(reports), "elapsed", time.Since(startTime))

	writer := newReportWriter(cfg, out)
	var sessionErrs []error
	for _, r := range reports {
		if _, err := writer.Write(r); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if r.Error != nil && !r.Cancelled {
			sessionErrs = append(sessionErrs, fmt.Errorf("session %s: %w", r.ID, r.Error))
		}
	}

	if batchErr != nil {
		return fmt.Errorf("crawl interrupted: %w", batchErr)
	}
	return errors.Join(sessionErrs...)
}

// newResolver builds the seed resolver from the file defaults.
func newResolver(cfg *config.Config, client *http.Client, logger *slog.Logger) *seed.Resolver {
	var defaults config.SiteConfig
	if cfg.SiteConfigs != nil {
		defaults = cfg.SiteConfigs.Defaults
	}
	opts := []seed.Option{
		seed.WithSearch(cfg.Search),
		seed.WithHTTPClient(client),
		seed.WithLogger(logger),
	}
	if defaults.Origin != "" {
		opts = append(opts, seed.WithOrigin(defaults.Origin))
	}
	if defaults.ArticlePrefix != "" {
		opts = append(opts, seed.WithArticlePrefix(defaults.ArticlePrefix))
	}
	if defaults.APIPath != "" {
		opts = append(opts, seed.WithAPIPath(defaults.APIPath))
	}
	return seed.NewResolver(opts...)
}

// crawlerOptions builds the crawler options for a site. Depth overrides in
// site come from a host entry and win over the flags.
func crawlerOptions(cfg *config.Config, site config.SiteConfig, logger *slog.Logger) []crawler.Option {
	maxDepth := cfg.MaxDepth
	if site.MaxDepth != nil {
		maxDepth = *site.MaxDepth
	}
	tolerantDepth := cfg.TolerantDepth
	if site.TolerantDepth != nil {
		tolerantDepth = *site.TolerantDepth
	}

	return []crawler.Option{
		crawler.WithMaxDepth(maxDepth),
		crawler.WithTolerantDepth(tolerantDepth),
		crawler.WithMaxResults(cfg.MaxResults),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithExpandUnconditionally(cfg.ExpandUnconditionally),
		crawler.WithRequireAnchorMatch(cfg.RequireAnchorMatch),
		crawler.WithSiteRules(siteRules(site)),
		crawler.WithLogger(logger),
	}
}

// siteRules overlays the non-zero fields of site on the default rules.
func siteRules(site config.SiteConfig) crawler.SiteRules {
	rules := crawler.DefaultSiteRules()
	if site.ArticlePrefix != "" {
		rules.ArticlePrefix = site.ArticlePrefix
	}
	if site.RootPath != "" {
		rules.RootPath = site.RootPath
	}
	if len(site.Denylist) > 0 {
		rules.Denylist = site.Denylist
	}
	if site.MinAnchorText > 0 {
		rules.MinAnchorText = site.MinAnchorText
	}
	return rules
}

// exportPathFor makes the export path unique per session when several
// seeds share one --output path.
func exportPathFor(path string, seeds int) string {
	if path == "" || seeds <= 1 || strings.Contains(path, pipeline.IDPlaceholder) {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + pipeline.IDPlaceholder + ext
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

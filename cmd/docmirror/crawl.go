package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmirror/internal/batch"
	"github.com/nao1215/docmirror/internal/config"
	"github.com/nao1215/docmirror/internal/crawler"
	"github.com/nao1215/docmirror/internal/database"
	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/log"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/render"
	"github.com/nao1215/docmirror/internal/report"
	"github.com/nao1215/docmirror/internal/storage"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>...",
		Short: "Mirror documentation sites as Markdown files",
		Long: `Crawl downloads every page reachable from each start URL within the start
URL's origin, converts it to Markdown, and saves it as <Title>.md.

Links are followed when their absolute URL starts with the start URL's
scheme and host. Each page is fetched at most once per crawl. Pages that fail
to download or save are reported and the crawl continues.

Examples:
  # Mirror a documentation site into ./docs
  docmirror crawl https://docs.example.com/

  # Use 4 workers and write into ./mirror
  docmirror crawl -w 4 -o mirror https://docs.example.com/

  # Mirror two sites at once (written to mirror/<host>/)
  docmirror crawl -b 2 -o mirror https://docs.example.com/ https://api.example.com/

  # Only the main article of each page, at most 3 links deep
  docmirror crawl --main-content -d 3 https://docs.example.com/

  # Write a Markdown crawl report to a file
  docmirror crawl --report markdown --report-file report.md https://docs.example.com/

Configuration file (.docmirror) example:
  defaults:
    ignorePatterns:
      - "*.pdf"
  sites:
    docs.example.com:
      depth: 5
      mainContent: true
    internal-docs.example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory to write Markdown files to")

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages fetched concurrently")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the start URL (0 = unlimited)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages fetched per start URL (0 = unlimited)")
	cmd.Flags().Bool("main-content", false,
		"Render only the main article of each page")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:1080)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of start URLs crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docmirror, then the XDG config dir, then home)")

	// Report flags
	cmd.Flags().StringP("report", "r", report.FormatText,
		"Crawl report format: text, markdown or json")
	cmd.Flags().String("report-file", "",
		"Write the crawl report to this file; stdout still gets a text summary")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this crawl in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data dir)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Crawls of different seeds, their reports and the logger share the
	// terminal, so every write goes through one lock.
	var outMu sync.Mutex
	out := &lockedWriter{mu: &outMu, w: cmd.OutOrStdout()}
	errOut := &lockedWriter{mu: &outMu, w: cmd.ErrOrStderr()}

	logger := log.NewSecureLogger(errOut, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, flagsSetBy(cmd), out, errOut, logger)
}

// lockedWriter serializes writes to w with a lock shared between writers.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
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

// flagsSetBy reports which flags were given explicitly on the command line.
func flagsSetBy(cmd *cobra.Command) map[string]bool {
	set := make(map[string]bool)
	for _, name := range []string{"depth", "max-pages", "main-content", "user-agent"} {
		set[name] = cmd.Flags().Changed(name)
	}
	return set
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	if cfg.OutputDir, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = cmd.Flags().GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MainContent, err = cmd.Flags().GetBool("main-content"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ReportFormat, err = cmd.Flags().GetString("report"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("report-file"); err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Seeds = args

	return cfg, nil
}

// loadSiteConfigs loads the config file. A missing file is an error only
// when its path was given explicitly.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	if configPath == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	siteConfigs, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return siteConfigs, nil
}

// crawlSettings are the effective settings of one seed's crawl.
type crawlSettings struct {
	outputDir      string
	maxDepth       int
	maxPages       int
	mainContent    bool
	userAgent      string
	cookie         string
	headers        map[string]string
	ignorePatterns []string
	followPatterns []string
}

// resolveSettings merges the site configuration of seed's host over the
// global configuration. Flags given explicitly win over the file.
func resolveSettings(cfg *config.Config, seed string, flagSet map[string]bool) crawlSettings {
	host := seedHost(seed)

	var site config.SiteConfig
	if cfg.SiteConfigs != nil {
		site = cfg.SiteConfigs.GetSiteConfig(host)
	}

	settings := crawlSettings{
		outputDir:      cfg.OutputDirFor(host),
		maxDepth:       cfg.MaxDepth,
		maxPages:       cfg.MaxPages,
		mainContent:    cfg.MainContent,
		userAgent:      cfg.UserAgent,
		cookie:         site.Cookie,
		headers:        site.Headers,
		ignorePatterns: site.IgnorePatterns,
		followPatterns: site.FollowPatterns,
	}

	if site.Depth > 0 && !flagSet["depth"] {
		settings.maxDepth = site.Depth
	}
	if site.MaxPages > 0 && !flagSet["max-pages"] {
		settings.maxPages = site.MaxPages
	}
	if site.MainContent != nil && !flagSet["main-content"] {
		settings.mainContent = *site.MainContent
	}
	if site.UserAgent != "" && !flagSet["user-agent"] {
		settings.userAgent = site.UserAgent
	}

	return settings
}

// seedHost returns the lower-cased host (with port) of seed, or "" when
// seed is not a URL.
func seedHost(seed string) string {
	u, err := url.Parse(seed)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// newSpider wires the fetcher, renderer and sink for one seed.
func newSpider(cfg *config.Config, settings crawlSettings, out, errOut io.Writer, logger *slog.Logger) (*crawler.Spider, error) {
	clientOpts := []fetch.ClientOption{fetch.WithTimeout(cfg.Timeout)}
	if cfg.ProxyAddress != "" {
		clientOpts = append(clientOpts, fetch.WithSOCKS5Proxy(cfg.ProxyAddress))
	}
	if settings.cookie != "" {
		clientOpts = append(clientOpts, fetch.WithCookie(settings.cookie))
	}
	if len(settings.headers) > 0 {
		clientOpts = append(clientOpts, fetch.WithHeaders(settings.headers))
	}

	client, err := fetch.NewHTTPClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := fetch.NewHTTPFetcher(client,
		fetch.WithUserAgent(settings.userAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithFetcherLogger(logger),
	)

	renderer := render.NewRenderer(
		render.WithMainContent(settings.mainContent),
		render.WithRendererLogger(logger),
	)

	return crawler.NewSpider(fetcher, renderer, storage.NewSink(settings.outputDir),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithMaxDepth(settings.maxDepth),
		crawler.WithMaxPages(settings.maxPages),
		crawler.WithIgnorePatterns(settings.ignorePatterns),
		crawler.WithFollowPatterns(settings.followPatterns),
		crawler.WithLogger(logger),
		crawler.WithOutput(out, errOut),
	), nil
}

// runCrawl crawls every seed of cfg, writes the report and records history.
func runCrawl(ctx context.Context, cfg *config.Config, flagSet map[string]bool, out, errOut io.Writer, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"output", cfg.OutputDir,
		"workers", cfg.Workers,
		"batch", cfg.BatchSize,
		"saveHistory", cfg.SaveHistory,
	)

	var db *database.HistoryDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database (use --no-history to skip): %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "path", db.Path())
	}

	reportOut, closeReport, err := openReportOutput(cfg.ReportFile, out)
	if err != nil {
		return err
	}
	defer closeReport()

	writer, err := newReportWriter(cfg, reportOut)
	if err != nil {
		return err
	}
	if cfg.ReportFile != "" {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)))
	}

	crawlSeed := func(ctx context.Context, seed string) (*model.CrawlSummary, error) {
		spider, err := newSpider(cfg, resolveSettings(cfg, seed, flagSet), out, errOut, logger)
		if err != nil {
			return nil, err
		}
		return spider.Crawl(ctx, seed)
	}

	runner := batch.NewRunner(crawlSeed,
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
	)

	startTime := time.Now()

	var (
		mu     sync.Mutex
		failed int
	)
	runErr := runner.RunWithCallback(ctx, cfg.Seeds, func(result batch.Result, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if result.Summary == nil {
			failed++
			fmt.Fprintf(errOut, "Crawl error for %s: %v\n", result.Seed, result.Err) //nolint:errcheck // best effort
			return
		}

		if _, err := writer.Write(result.Summary); err != nil {
			logger.Error("report failed", "seed", result.Seed, "error", err)
		}

		if err := saveCrawl(ctx, db, result.Summary, logger); err != nil {
			logger.Error("failed to save crawl history", "seed", result.Seed, "error", err)
		}
	})

	logger.Info("crawl finished",
		"seeds", len(cfg.Seeds),
		"failed", failed,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	if runErr != nil {
		return fmt.Errorf("crawl interrupted: %w", runErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d crawls failed", failed, len(cfg.Seeds))
	}
	return nil
}

// openReportOutput returns where reports go: path when set, else stdout.
func openReportOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // written data is already flushed per report
}

// newReportWriter returns the report writer for cfg's format.
func newReportWriter(cfg *config.Config, w io.Writer) (report.Writer, error) {
	switch cfg.ReportFormat {
	case "", report.FormatText:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose)), nil
	case report.FormatJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion())), nil
	default:
		return report.NewWriter(cfg.ReportFormat, w)
	}
}

// saveCrawl records summary in db. A nil db is a no-op. Saving uses a
// context that outlives ctx so that interrupted crawls are recorded too.
func saveCrawl(ctx context.Context, db *database.HistoryDB, summary *model.CrawlSummary, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	runID, err := db.SaveCrawl(context.WithoutCancel(ctx), summary)
	if err != nil {
		return fmt.Errorf("failed to save crawl: %w", err)
	}

	logger.Debug("crawl saved to history", "seed", summary.Seed, "run_id", runID)
	return nil
}

package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/docmirror/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docmirror"

	// DefaultOutputDir is where Markdown files are written when no
	// directory is given.
	DefaultOutputDir = "docs"

	// DefaultWorkers of 1 processes pages one at a time in discovery order.
	DefaultWorkers = 1

	// DefaultTimeout applies to each HTTP request. Documentation hosts
	// usually answer in well under a second.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth of 0 follows links without a depth limit.
	DefaultMaxDepth = 0

	// DefaultMaxPages of 0 fetches every reachable page.
	DefaultMaxPages = 0

	// DefaultBatchSize is the number of seeds crawled concurrently.
	DefaultBatchSize = 1

	// DefaultUserAgent identifies docmirror in HTTP requests.
	DefaultUserAgent = "docmirror/1.0 (+https://github.com/nao1215/docmirror)"

	// DefaultMaxBodySize is the largest response body accepted.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds all configuration options for docmirror.
// It is populated from CLI flags and the config file, and passed through
// the application rather than kept in global state.
type Config struct {
	// Seeds are the start URLs. Each seed is crawled independently and
	// its origin bounds what is followed.
	Seeds []string

	// OutputDir is the directory Markdown files are written to. With more
	// than one seed, each seed gets a subdirectory named after its host.
	OutputDir string

	// Workers is the number of pages fetched concurrently within a crawl.
	Workers int

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// MaxDepth is the maximum link distance from the seed.
	// 0 means unbounded.
	MaxDepth int

	// MaxPages is the maximum number of pages fetched per seed.
	// 0 means unbounded.
	MaxPages int

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// MainContent renders only the main article of each page instead of
	// the whole body.
	MainContent bool

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// ReportFormat selects the crawl summary format: text, markdown or json.
	// Empty means text.
	ReportFormat string

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// SaveHistory records each crawl in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/docmirror on Linux).
	DBDir string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// A larger response is a fetch failure.
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds the per-site settings loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Workers:      DefaultWorkers,
		Timeout:      DefaultTimeout,
		MaxDepth:     DefaultMaxDepth,
		MaxPages:     DefaultMaxPages,
		BatchSize:    DefaultBatchSize,
		ReportFormat: report.FormatText,
		SaveHistory:  true,
		DBDir:        XDGDataDir(),
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for docmirror.
// On Linux: ~/.local/share/docmirror
// On macOS: ~/Library/Application Support/docmirror
// On Windows: %LOCALAPPDATA%\docmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docmirror.
// On Linux: ~/.config/docmirror
// On macOS: ~/Library/Application Support/docmirror
// On Windows: %APPDATA%\docmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// OutputDirFor returns the directory the crawl of seedHost writes to.
// A single seed writes straight into OutputDir so that the default layout
// is docs/<Title>.md. A port in seedHost becomes "_<port>".
func (c *Config) OutputDirFor(seedHost string) string {
	if len(c.Seeds) <= 1 || seedHost == "" {
		return c.OutputDir
	}
	return filepath.Join(c.OutputDir, strings.ReplaceAll(seedHost, ":", "_"))
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.ReportFormat {
	case "", report.FormatText, report.FormatMarkdown, report.FormatJSON:
	default:
		return ErrInvalidReportFormat
	}

	return nil
}

package model

import (
	"net/http"
	"time"

	"github.com/nao1215/docmirror/internal/scope"
)

// CrawlTarget is a URL waiting to be fetched, paired with the origin of
// the crawl that discovered it.
type CrawlTarget struct {
	// URL is the resolved, absolute URL to fetch.
	URL string `json:"url"`

	// Origin is the scheme and host of the crawl's seed.
	Origin scope.Origin `json:"-"`

	// Depth is the number of links followed from the seed to reach URL.
	// The seed itself has depth 0.
	Depth int `json:"depth"`
}

// FetchedPage is the raw result of a successful fetch.
// It only lives while one CrawlTarget is being processed.
type FetchedPage struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// Header contains all response headers.
	Header http.Header

	// Body is the complete response body.
	Body []byte
}

// RenderedDocument is the Markdown form of a fetched page.
type RenderedDocument struct {
	// Title is the text of the page's <title> element.
	Title string

	// HasTitle is false when the page has no <title> element or its
	// text is blank.
	HasTitle bool

	// Markdown is the converted page body.
	Markdown string
}

// OutputFile is one Markdown file written to the output directory.
type OutputFile struct {
	// Path is directory + sanitized title + ".md".
	Path string `json:"path"`

	// Content is the Markdown written to Path.
	Content string `json:"-"`
}

// ErrorKind classifies why a page was not fully processed.
type ErrorKind string

const (
	// ErrorKindNone means the page was fetched and saved.
	ErrorKindNone ErrorKind = ""

	// ErrorKindFetch means the page could not be downloaded.
	ErrorKindFetch ErrorKind = "fetch"

	// ErrorKindRender means the page body could not be parsed or converted.
	ErrorKindRender ErrorKind = "render"

	// ErrorKindIO means the page was processed but its file was not written.
	ErrorKindIO ErrorKind = "io"
)

// PageResult records what happened to one crawl target.
type PageResult struct {
	// URL is the fetched URL.
	URL string `json:"url"`

	// Depth is the link distance from the seed.
	Depth int `json:"depth"`

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Title is the title used to name the output file.
	Title string `json:"title,omitempty"`

	// Path is the written file, empty if nothing was written.
	Path string `json:"path,omitempty"`

	// Digest is a hex BLAKE2b-256 digest of the written Markdown.
	Digest string `json:"digest,omitempty"`

	// LinksFound is the number of in-scope links discovered on the page.
	LinksFound int `json:"links_found"`

	// ErrorKind is set when processing stopped early or the write failed.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Error is the error message for ErrorKind.
	Error string `json:"error,omitempty"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`
}

// Saved reports whether the page's Markdown file was written.
func (r *PageResult) Saved() bool {
	return r.Path != "" && r.ErrorKind == ErrorKindNone
}

// CrawlSummary is the outcome of one crawl invocation.
type CrawlSummary struct {
	// Seed is the start URL as given by the caller.
	Seed string `json:"seed"`

	// Origin is the crawl's base origin ("scheme://host").
	Origin string `json:"origin"`

	// OutputDir is the directory Markdown files were written to.
	OutputDir string `json:"output_dir"`

	// StartedAt and FinishedAt bracket the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Cancelled is true when the crawl stopped before the frontier was
	// exhausted (context cancellation or the page limit).
	Cancelled bool `json:"cancelled"`

	// Pages holds one result per fetched URL, in completion order.
	Pages []*PageResult `json:"pages"`
}

// NewCrawlSummary creates an empty summary for a crawl starting now.
func NewCrawlSummary(seed, outputDir string) *CrawlSummary {
	return &CrawlSummary{
		Seed:      seed,
		OutputDir: outputDir,
		StartedAt: time.Now(),
		Pages:     make([]*PageResult, 0),
	}
}

// Duration returns how long the crawl took.
func (s *CrawlSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// SavedCount returns the number of pages written to disk.
func (s *CrawlSummary) SavedCount() int {
	n := 0
	for _, p := range s.Pages {
		if p.Saved() {
			n++
		}
	}
	return n
}

// FailureCount returns the number of pages with the given error kind.
func (s *CrawlSummary) FailureCount(kind ErrorKind) int {
	n := 0
	for _, p := range s.Pages {
		if p.ErrorKind == kind {
			n++
		}
	}
	return n
}

// Failures returns the results that carry an error, in crawl order.
func (s *CrawlSummary) Failures() []*PageResult {
	failures := make([]*PageResult, 0)
	for _, p := range s.Pages {
		if p.ErrorKind != ErrorKindNone {
			failures = append(failures, p)
		}
	}
	return failures
}

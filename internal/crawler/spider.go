package crawler

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/render"
	"github.com/nao1215/docmirror/internal/scope"
	"github.com/nao1215/docmirror/internal/storage"
)

// PageRenderer converts a parsed page to Markdown.
// *render.Renderer implements it.
type PageRenderer interface {
	Render(doc render.Document) (model.RenderedDocument, error)
}

// DocumentSink persists rendered pages.
// *storage.Sink implements it.
type DocumentSink interface {
	// Dir is the directory documents end up in.
	Dir() string

	// Prepare makes the sink ready to accept writes. It is called once
	// per crawl before the first fetch.
	Prepare() error

	// WriteDocument stores content under stem and returns the path
	// written.
	WriteDocument(stem, content string) (string, error)
}

// Spider crawls one documentation site per Crawl call.
//
// A Spider holds no per-crawl state, so it can run several crawls, one
// after another or concurrently.
type Spider struct {
	fetcher  fetch.Fetcher
	renderer PageRenderer
	sink     DocumentSink

	// workers is the number of pages processed concurrently.
	// 1 processes pages strictly in discovery order.
	workers int

	// maxDepth limits how many links away from the seed a page may be.
	// 0 means unbounded.
	maxDepth int

	// maxPages limits how many pages are fetched. 0 means unbounded.
	maxPages int

	// ignorePatterns are URL path globs never followed.
	ignorePatterns []string

	// followPatterns, when set, are the only URL path globs followed.
	followPatterns []string

	logger *slog.Logger

	// out receives "Saved: <path>" lines, errOut receives failure lines.
	out    io.Writer
	errOut io.Writer
	outMu  sync.Mutex
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithWorkers sets how many pages are processed concurrently.
// Values below 1 are treated as 1.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		s.workers = max(n, 1)
	}
}

// WithMaxDepth sets the maximum link distance from the seed.
// 0 = unbounded, 1 = seed plus the pages it links to, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = max(depth, 0)
	}
}

// WithMaxPages sets the maximum number of pages to fetch. 0 = unbounded.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = max(maxPages, 0)
	}
}

// WithIgnorePatterns sets URL path patterns that are never followed.
// Patterns use glob syntax (e.g., "/blog/*", "*.pdf").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts following to URL paths matching at least
// one pattern. Ignore patterns take precedence. The seed is always fetched.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithOutput sets where progress lines are printed.
// Defaults are os.Stdout and os.Stderr.
func WithOutput(out, errOut io.Writer) SpiderOption {
	return func(s *Spider) {
		s.out = out
		s.errOut = errOut
	}
}

// NewSpider creates a Spider from its collaborators.
func NewSpider(fetcher fetch.Fetcher, renderer PageRenderer, sink DocumentSink, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  fetcher,
		renderer: renderer,
		sink:     sink,
		workers:  1,
		logger:   slog.Default(),
		out:      os.Stdout,
		errOut:   os.Stderr,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// pageOutcome is what a worker hands back to the dispatcher.
type pageOutcome struct {
	result *model.PageResult
	links  []model.CrawlTarget
}

// Crawl mirrors every page reachable from seed under the seed's origin.
//
// An invalid seed or an unusable output directory fails before anything is
// fetched. Per-page failures never fail the crawl; they are recorded in the
// summary. When ctx is cancelled no new pages are started, pages in flight
// finish, and the partial summary is returned together with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seed string) (*model.CrawlSummary, error) {
	origin, err := scope.ComputeBaseOrigin(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	if err := s.sink.Prepare(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputDirectory, err)
	}

	summary := model.NewCrawlSummary(seed, s.sink.Dir())
	summary.Origin = origin.String()

	logger := s.logger.With("seed", seed)
	logger.Debug("crawl started", "origin", summary.Origin, "workers", s.workers, "output", s.sink.Dir())

	visited := NewVisitedSet()
	queue := []model.CrawlTarget{{URL: seed, Origin: origin}}
	outcomes := make(chan pageOutcome, s.workers)

	var g errgroup.Group
	g.SetLimit(s.workers)

	inFlight := 0
	started := 0
	truncated := false

	for {
		for len(queue) > 0 && inFlight < s.workers && ctx.Err() == nil && !truncated {
			target := queue[0]
			queue = queue[1:]

			if s.maxPages > 0 && started >= s.maxPages {
				if !visited.Contains(target.URL) {
					truncated = true
				}
				continue
			}
			if !visited.MarkIfNotVisited(target.URL) {
				continue
			}

			started++
			inFlight++
			g.Go(func() error {
				outcomes <- s.processPage(ctx, target, visited)
				return nil
			})
		}

		if inFlight == 0 {
			break
		}

		outcome := <-outcomes
		inFlight--
		summary.Pages = append(summary.Pages, outcome.result)
		queue = append(queue, outcome.links...)
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	summary.FinishedAt = time.Now()
	summary.Cancelled = truncated || ctx.Err() != nil

	logger.Debug("crawl finished",
		"pages", len(summary.Pages),
		"visited", visited.Len(),
		"saved", summary.SavedCount(),
		"duration", summary.Duration(),
		"cancelled", summary.Cancelled,
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// processPage fetches, renders and saves one target and returns the links
// to follow from it.
func (s *Spider) processPage(ctx context.Context, target model.CrawlTarget, visited *VisitedSet) pageOutcome {
	result := &model.PageResult{URL: target.URL, Depth: target.Depth}

	page, err := s.fetcher.Fetch(ctx, target.URL)
	result.FetchedAt = time.Now()
	if err != nil {
		result.ErrorKind = model.ErrorKindFetch
		result.Error = err.Error()
		s.printf(s.errOut, "Failed to download %s: %v\n", target.URL, err)
		return pageOutcome{result: result}
	}
	result.StatusCode = page.StatusCode

	pageURL, err := url.Parse(target.URL)
	if err != nil {
		result.ErrorKind = model.ErrorKindRender
		result.Error = err.Error()
		return pageOutcome{result: result}
	}

	doc, err := render.Parse(page.Body, render.WithDocumentURL(pageURL))
	if err != nil {
		result.ErrorKind = model.ErrorKindRender
		result.Error = err.Error()
		s.logger.Warn("failed to parse page", "url", target.URL, "error", err)
		return pageOutcome{result: result}
	}

	s.savePage(doc, pageURL, result)

	links := s.extractLinks(doc, pageURL, target, visited)
	result.LinksFound = len(links)

	return pageOutcome{result: result, links: links}
}

// savePage renders doc and writes it to the sink, recording the outcome in
// result. Failures are reported but do not stop link extraction.
func (s *Spider) savePage(doc render.Document, pageURL *url.URL, result *model.PageResult) {
	rendered, err := s.renderer.Render(doc)
	if err != nil {
		result.ErrorKind = model.ErrorKindRender
		result.Error = err.Error()
		s.logger.Warn("failed to render page", "url", result.URL, "error", err)
		return
	}

	result.Title = pageTitle(rendered, pageURL)
	stem := storage.StemFor(result.Title)

	path, err := s.sink.WriteDocument(stem, rendered.Markdown)
	if err != nil {
		result.ErrorKind = model.ErrorKindIO
		result.Error = err.Error()
		s.printf(s.errOut, "Failed to save %s: %v\n", result.URL, err)
		return
	}

	digest := blake2b.Sum256([]byte(rendered.Markdown))
	result.Path = path
	result.Digest = hex.EncodeToString(digest[:])
	s.printf(s.out, "Saved: %s\n", path)
}

// extractLinks returns the targets worth queueing from doc: resolved,
// in scope, allowed by the patterns, not yet visited, each once. Targets
// keep the URL as resolved minus its fragment; only deduplication uses the
// normalized form, so links found on later pages still share the prefix of
// an origin written with upper-case letters.
func (s *Spider) extractLinks(doc render.Document, pageURL *url.URL, target model.CrawlTarget, visited *VisitedSet) []model.CrawlTarget {
	if s.maxDepth > 0 && target.Depth >= s.maxDepth {
		return nil
	}

	links := make([]model.CrawlTarget, 0)
	seen := make(map[string]struct{})

	for _, href := range doc.Anchors() {
		resolved, ok := scope.ResolveLink(pageURL, href)
		if !ok || !scope.IsInScope(resolved, target.Origin) || !s.shouldFollow(resolved) {
			continue
		}

		key := scope.Normalize(resolved)
		if _, dup := seen[key]; dup || visited.Contains(resolved) {
			continue
		}
		seen[key] = struct{}{}

		links = append(links, model.CrawlTarget{
			URL:    scope.StripFragment(resolved),
			Origin: target.Origin,
			Depth:  target.Depth + 1,
		})
	}

	return links
}

// pageTitle picks the name of a page's file: its <title>, else its URL
// path without surrounding slashes, else "index".
func pageTitle(rendered model.RenderedDocument, pageURL *url.URL) string {
	if rendered.HasTitle {
		return rendered.Title
	}
	if path := strings.Trim(pageURL.Path, "/"); path != "" {
		return path
	}
	return "index"
}

func (s *Spider) printf(w io.Writer, format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(w, format, args...) //nolint:errcheck // progress output is best effort
}

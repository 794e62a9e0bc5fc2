package crawler

import (
	"context"
	"time"

	"github.com/nao1215/docmirror/internal/fetch"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/render"
	"github.com/nao1215/docmirror/internal/storage"
)

const (
	// DefaultOutputDir is where CrawlDocs writes when no directory is given.
	DefaultOutputDir = "docs"

	// DefaultTimeout is the per-request timeout used by CrawlDocs.
	DefaultTimeout = 30 * time.Second
)

// CrawlDocs mirrors the site at startURL into outputDir with default
// settings: one worker, no depth or page limit, full-body rendering.
// An empty outputDir means DefaultOutputDir.
func CrawlDocs(ctx context.Context, startURL, outputDir string) (*model.CrawlSummary, error) {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	client, err := fetch.NewHTTPClient(fetch.WithTimeout(DefaultTimeout))
	if err != nil {
		return nil, err
	}

	spider := NewSpider(
		fetch.NewHTTPFetcher(client),
		render.NewRenderer(),
		storage.NewSink(outputDir),
	)
	return spider.Crawl(ctx, startURL)
}

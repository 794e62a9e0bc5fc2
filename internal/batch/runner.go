package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docmirror/internal/model"
)

// CrawlFunc runs one complete crawl for seed.
// It is called from several goroutines when concurrency is above 1.
type CrawlFunc func(ctx context.Context, seed string) (*model.CrawlSummary, error)

// Result is the outcome of one seed's crawl.
type Result struct {
	// Seed is the start URL.
	Seed string

	// Summary is nil when the crawl failed before it started.
	Summary *model.CrawlSummary

	// Err is the crawl's error, if any.
	Err error
}

// Runner runs crawls for many seeds with bounded concurrency.
//
// Design decision: A failing seed never cancels the others. An invalid seed
// or an unwritable output directory is a problem of that seed only, so the
// error is stored in its Result and the batch continues.
type Runner struct {
	crawl       CrawlFunc
	concurrency int
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency sets how many seeds are crawled at once.
// Non-positive values keep the default of 1.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger for batch-level records.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner that crawls each seed with crawl.
func NewRunner(crawl CrawlFunc, opts ...Option) *Runner {
	r := &Runner{
		crawl:       crawl,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Run crawls every seed and returns one Result per seed, in seed order.
// The returned error is non-nil only when ctx was cancelled; seeds not
// started by then carry ctx's error in their Result.
func (r *Runner) Run(ctx context.Context, seeds []string) ([]Result, error) {
	results := make([]Result, len(seeds))
	err := r.RunWithCallback(ctx, seeds, func(result Result, index int) {
		results[index] = result
	})
	return results, err
}

// RunWithCallback crawls every seed and calls callback as each crawl
// completes. callback runs on the crawl's goroutine and must be safe for
// concurrent use when concurrency is above 1; each index is passed once.
func (r *Runner) RunWithCallback(ctx context.Context, seeds []string, callback func(result Result, index int)) error {
	r.logger.Debug("starting batch",
		"seeds", len(seeds),
		"concurrency", r.concurrency,
	)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				callback(Result{Seed: seed, Err: err}, i)
				return nil
			}

			r.logger.Debug("crawling seed", "seed", seed, "index", i+1, "total", len(seeds))

			summary, err := r.crawl(ctx, seed)
			if err != nil {
				r.logger.Warn("crawl failed", "seed", seed, "error", err)
			}

			callback(Result{Seed: seed, Summary: summary, Err: err}, i)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // per-seed errors are reported through callback

	r.logger.Debug("batch complete",
		"seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return ctx.Err()
}

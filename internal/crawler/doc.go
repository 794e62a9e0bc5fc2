// Package crawler mirrors a documentation site into Markdown files.
//
// # Architecture
//
// The Spider owns every crawl decision. It pulls targets from a FIFO
// worklist, fetches each one through a fetch.Fetcher, renders it with a
// PageRenderer, names it with storage.StemFor and hands it to a
// DocumentSink. Links found on the page are resolved and scoped with the
// scope package and appended to the worklist.
//
// Each reachable URL is fetched at most once per crawl. The VisitedSet is
// consulted with a single check-and-insert before the fetch, so two workers
// that discover the same link race on one mutex and only one of them wins.
//
// # Failure handling
//
// Failures are contained to the branch they happen on:
//   - an invalid seed or an output directory that cannot be created stops
//     the crawl before anything is fetched
//   - a failed fetch is reported and that branch ends, without retry
//   - a failed write is reported, but links on the page are still followed
//
// # Concurrency
//
// With one worker (the default) pages are processed strictly in discovery
// order. With more, a bounded errgroup drains the same worklist.
//
// # Usage
//
//	summary, err := crawler.CrawlDocs(ctx, "https://docs.example.com/", "docs")
package crawler

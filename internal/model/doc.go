// Package model defines the data structures shared by the crawl pipeline.
//
// This package contains the following main types:
//   - CrawlTarget: A URL waiting in the crawl queue
//   - FetchedPage: The raw HTTP response body of one page
//   - PageResult: The outcome of processing one page
//   - CrawlSummary: The totals and per-page results of one crawl
//
// Models live in their own package so that the crawler, report, and
// database packages can share them without import cycles. PageResult and
// CrawlSummary are serializable to JSON for report output.
package model

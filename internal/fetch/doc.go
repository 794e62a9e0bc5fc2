// Package fetch downloads pages for the crawler.
//
// The crawler depends only on the Fetcher interface. HTTPFetcher is the
// production implementation: one GET per call, a per-request timeout taken
// from the http.Client, a response size limit, and optional static headers,
// cookie and SOCKS5 proxy taken from the site configuration.
//
// Any transport error, timeout, or non-2xx status is reported as an *Error
// wrapping ErrFetch. Nothing is retried; the crawler treats a failed fetch
// as the end of that branch.
package fetch

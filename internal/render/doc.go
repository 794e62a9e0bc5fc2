// Package render turns fetched HTML into Markdown.
//
// Parsing and rendering are pure: no I/O and no crawl state. The crawler
// sees a parsed page only through the Document interface, so tests can feed
// it any HTML without a network.
//
// # Main content mode
//
// With WithMainContent the renderer first runs go-readability over the page
// body and converts only the extracted article, dropping navigation, sidebars
// and footers that documentation themes repeat on every page. When extraction
// fails the full body is converted instead.
package render

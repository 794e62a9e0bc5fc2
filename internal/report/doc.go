// Package report writes crawl summaries.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: a Markdown document, handy next to the mirrored docs
//   - JSONWriter: structured output for scripts
//
// Writers implement the Writer interface, so the CLI can pick one by name
// with NewWriter and combine several with MultiWriter.
package report

package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/docmirror/internal/model"
)

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by NewWriter for unsupported format names.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer writes crawl summaries.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *model.CrawlSummary) (int, error)
}

// NewWriter returns the writer for format. An empty format means text.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case "", FormatText:
		return NewSimpleWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (use %s, %s or %s)", ErrUnknownFormat, format, FormatText, FormatMarkdown, FormatJSON)
	}
}

// MultiWriter writes to multiple Writers, e.g. the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every Writer, stopping at the first error.
func (m *MultiWriter) Write(summary *model.CrawlSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a crawl ended.
func statusText(summary *model.CrawlSummary) string {
	if summary.Cancelled {
		return "Stopped early (partial results)"
	}
	return "Complete"
}

// truncateString shortens s to maxLen bytes, ending in "..." when cut.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

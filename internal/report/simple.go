package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/docmirror/internal/model"
)

// SimpleWriter outputs a plain text summary for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose also lists every saved page.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists saved pages in addition to failures.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable form.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Seed:           %s\n", summary.Seed)
	fmt.Fprintf(&sb, "Output:         %s\n", summary.OutputDir)
	fmt.Fprintf(&sb, "Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Duration:       %s\n", summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Status:         %s\n", statusText(summary))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Pages fetched:  %d\n", len(summary.Pages))
	fmt.Fprintf(&sb, "Pages saved:    %d\n", summary.SavedCount())
	fmt.Fprintf(&sb, "Fetch failures: %d\n", summary.FailureCount(model.ErrorKindFetch))
	fmt.Fprintf(&sb, "Render errors:  %d\n", summary.FailureCount(model.ErrorKindRender))
	fmt.Fprintf(&sb, "Write failures: %d\n", summary.FailureCount(model.ErrorKindIO))

	if failures := summary.Failures(); len(failures) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\nFAILURES\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, p := range failures {
			fmt.Fprintf(&sb, "  [%s] %s\n", strings.ToUpper(string(p.ErrorKind)), p.URL)
			fmt.Fprintf(&sb, "         %s\n", truncateString(p.Error, 100))
		}
	}

	if w.verbose && summary.SavedCount() > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\nSAVED PAGES\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, p := range summary.Pages {
			if p.Saved() {
				fmt.Fprintf(&sb, "  %s\n    -> %s\n", p.URL, p.Path)
			}
		}
	}

	sb.WriteString("\n")
	return io.WriteString(w.output, sb.String())
}

package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/docmirror/internal/model"
)

// JSONWriter outputs summaries as JSON for scripts.
//
// Design decision: We use standard encoding/json; the summary is plain
// data and the struct tags on the model types define the schema.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version, when set, wraps the summary in a JSONReport.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the output in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the summary plus derived counters and tool metadata.
type JSONReport struct {
	// Version is the docmirror version that produced the report.
	Version string `json:"version,omitempty"`

	// Saved, FetchFailures, RenderFailures and IOFailures are computed
	// from Summary.Pages.
	Saved          int `json:"saved"`
	FetchFailures  int `json:"fetch_failures"`
	RenderFailures int `json:"render_failures"`
	IOFailures     int `json:"io_failures"`

	// Summary is the crawl summary.
	Summary *model.CrawlSummary `json:"summary"`
}

// NewJSONReport wraps summary with its counters.
func NewJSONReport(summary *model.CrawlSummary, version string) *JSONReport {
	return &JSONReport{
		Version:        version,
		Saved:          summary.SavedCount(),
		FetchFailures:  summary.FailureCount(model.ErrorKindFetch),
		RenderFailures: summary.FailureCount(model.ErrorKindRender),
		IOFailures:     summary.FailureCount(model.ErrorKindIO),
		Summary:        summary,
	}
}

// Write outputs the summary as one JSON document followed by a newline.
func (w *JSONWriter) Write(summary *model.CrawlSummary) (int, error) {
	return w.writeJSON(NewJSONReport(summary, w.version))
}

// WriteValue outputs any JSON-serializable value with the writer's
// formatting. The history command uses it for stored runs.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	return w.writeJSON(v)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docmirror/internal/model"
)

// MarkdownWriter outputs a crawl summary as a Markdown document.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeFailures(md, summary)
	w.writeSavedPages(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + summary.Seed + "`"},
			{"Output", "`" + summary.OutputDir + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().Round(time.Millisecond).String()},
			{"Status", statusText(summary)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.CrawlSummary) {
	saved := summary.SavedCount()
	fetchFailures := summary.FailureCount(model.ErrorKindFetch)
	renderFailures := summary.FailureCount(model.ErrorKindRender)
	ioFailures := summary.FailureCount(model.ErrorKindIO)

	md.H2("Pages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Saved", strconv.Itoa(saved)},
			{"Fetch failed", strconv.Itoa(fetchFailures)},
			{"Render failed", strconv.Itoa(renderFailures)},
			{"Write failed", strconv.Itoa(ioFailures)},
			{"**Total**", "**" + strconv.Itoa(len(summary.Pages)) + "**"},
		},
	})
	md.PlainText("")

	if len(summary.Pages) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Page Outcomes"),
			piechart.WithShowData(true),
		)
		for _, slice := range []struct {
			label string
			count int
		}{
			{"Saved", saved},
			{"Fetch failed", fetchFailures},
			{"Render failed", renderFailures},
			{"Write failed", ioFailures},
		} {
			if slice.count > 0 {
				chart.LabelAndIntValue(slice.label, uint64(slice.count)) //nolint:gosec // counts are never negative
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case ioFailures > 0:
		md.Cautionf("%d page(s) were fetched but could not be written.", ioFailures)
	case summary.Cancelled:
		md.Warningf("The crawl stopped early; %d page(s) were processed.", len(summary.Pages))
	case fetchFailures+renderFailures > 0:
		md.Importantf("%d page(s) could not be mirrored.", fetchFailures+renderFailures)
	case saved == 0:
		md.Note("No pages were saved.")
	default:
		md.Tip("Every reachable page was mirrored.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.CrawlSummary) {
	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(failures))
	for i, p := range failures {
		rows[i] = []string{string(p.ErrorKind), p.URL, truncateString(p.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSavedPages(md *markdown.Markdown, summary *model.CrawlSummary) {
	if summary.SavedCount() == 0 {
		return
	}

	md.H2("Saved Pages")
	md.PlainText("")

	rows := make([][]string, 0, summary.SavedCount())
	for _, p := range summary.Pages {
		if p.Saved() {
			rows = append(rows, []string{p.URL, "`" + p.Path + "`", strconv.Itoa(p.Depth)})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "File", "Depth"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docmirror](https://github.com/nao1215/docmirror)*")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmirror/internal/config"
	"github.com/nao1215/docmirror/internal/database"
	"github.com/nao1215/docmirror/internal/model"
	"github.com/nao1215/docmirror/internal/report"
)

// defaultHistoryLimit is how many runs history lists by default.
const defaultHistoryLimit = 20

// errNoSeedHistory is returned when a history query needs a seed and none was given.
var errNoSeedHistory = errors.New("seed URL is required (use --list-seeds to see recorded seeds)")

// NewHistoryCmd creates the history command.
// It shows crawl runs recorded in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "Show past crawl runs",
		Long: `History shows crawl runs recorded by 'docmirror crawl'.

Each run records when it ran, how many pages were fetched and saved, and a
digest of every saved page's Markdown. Two runs of the same seed can be
compared to see which pages were added, removed, or changed.

Examples:
  # List recent runs for a seed
  docmirror history https://docs.example.com/

  # List every seed in the database
  docmirror history --list-seeds

  # Show the pages of one run
  docmirror history --run 12

  # Compare the latest two runs of a seed
  docmirror history --diff https://docs.example.com/

  # Delete runs started before a date
  docmirror history --prune-before 2026-01-01

  # Output in JSON format
  docmirror history --json https://docs.example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all seeds in the history database")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().Int64("run", 0,
		"Show the pages of the run with this ID")
	cmd.Flags().Bool("diff", false,
		"Compare the latest two runs of the seed")
	cmd.Flags().String("prune-before", "",
		"Delete runs started before this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data dir)")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	seed        string
	listSeeds   bool
	limit       int
	runID       int64
	diff        bool
	pruneBefore time.Time
	jsonOutput  bool
	dbDir       string
}

// parseHistoryOptions reads and validates the history flags.
// Validation happens before the database is opened.
func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	if len(args) > 0 {
		opts.seed = args[0]
	}

	var err error
	if opts.listSeeds, err = cmd.Flags().GetBool("list-seeds"); err != nil {
		return nil, err
	}
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.runID, err = cmd.Flags().GetInt64("run"); err != nil {
		return nil, err
	}
	if opts.diff, err = cmd.Flags().GetBool("diff"); err != nil {
		return nil, err
	}
	if opts.jsonOutput, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	pruneBefore, err := cmd.Flags().GetString("prune-before")
	if err != nil {
		return nil, err
	}
	if pruneBefore != "" {
		opts.pruneBefore, err = time.Parse("2006-01-02", pruneBefore)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	if opts.limit < 0 {
		return nil, errors.New("invalid limit: must be non-negative")
	}

	needsSeed := !opts.listSeeds && opts.runID == 0 && opts.pruneBefore.IsZero()
	if needsSeed && opts.seed == "" {
		return nil, errNoSeedHistory
	}

	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

// runHistory dispatches to the requested history view.
func runHistory(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	switch {
	case !opts.pruneBefore.IsZero():
		return pruneHistory(ctx, db, opts, out)
	case opts.listSeeds:
		return listSeeds(ctx, db, opts, out)
	case opts.runID > 0:
		return showRun(ctx, db, opts, out)
	case opts.diff:
		return diffLatestRuns(ctx, db, opts, out)
	default:
		return listRuns(ctx, db, opts, out)
	}
}

// pruneHistory deletes runs started before the cutoff date.
func pruneHistory(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	deleted, err := db.DeleteRunsBefore(ctx, opts.pruneBefore)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(out, map[string]int64{"deleted": deleted})
	}
	fmt.Fprintf(out, "Deleted %d crawl runs started before %s\n", deleted, opts.pruneBefore.Format("2006-01-02"))
	return nil
}

// listSeeds lists every seed with recorded runs.
func listSeeds(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(out, seeds)
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No crawls found in the history database.")
		fmt.Fprintln(out, "\nUse 'docmirror crawl <url>' to mirror a documentation site.")
		return nil
	}

	fmt.Fprintf(out, "Crawled seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(out, "  • %s\n", seed)
	}
	fmt.Fprintln(out, "\nUse 'docmirror history <seed>' to see the runs of a seed.")

	return nil
}

// listRuns lists the most recent runs of a seed.
func listRuns(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	runs, err := db.GetCrawlHistory(ctx, opts.seed, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No crawl history found for %s\n", opts.seed)
		return nil
	}

	fmt.Fprintf(out, "Crawl history for %s (%d runs):\n\n", opts.seed, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-10s  %6s  %6s  %8s  %s\n",
		"ID", "Started", "Duration", "Pages", "Saved", "Failures", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-19s  %-10s  %6d  %6d  %8d  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration().Round(time.Millisecond),
			run.PageCount,
			run.SavedCount,
			run.FetchFailures+run.IOFailures,
			runStatus(run),
		)
	}

	fmt.Fprintln(out, "\nUse 'docmirror history --run <id>' to see the pages of a run.")
	fmt.Fprintln(out, "Use 'docmirror history --diff <seed>' to compare the latest two runs.")

	return nil
}

// runStatus describes how a run ended.
func runStatus(run database.RunRecord) string {
	if run.Cancelled {
		return "partial"
	}
	return "complete"
}

// runDetail is the JSON shape of a run with its pages.
type runDetail struct {
	Run   *database.RunRecord `json:"run"`
	Pages []*model.PageResult `json:"pages"`
}

// showRun prints one run and its pages.
func showRun(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	run, err := db.GetRun(ctx, opts.runID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("run with ID %d not found", opts.runID)
		}
		return fmt.Errorf("failed to get run %d: %w", opts.runID, err)
	}

	pages, err := db.GetRunPages(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to get pages of run %d: %w", run.ID, err)
	}

	if opts.jsonOutput {
		return writeJSON(out, runDetail{Run: run, Pages: pages})
	}

	fmt.Fprintf(out, "Run %d: %s\n", run.ID, run.Seed)
	fmt.Fprintf(out, "  Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Duration: %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "  Status:   %s\n\n", runStatus(*run))

	for _, page := range pages {
		if page.Saved() {
			fmt.Fprintf(out, "  [SAVED] %s\n          -> %s\n", page.URL, page.Path)
			continue
		}
		fmt.Fprintf(out, "  [%s] %s\n          %s\n", strings.ToUpper(string(page.ErrorKind)), page.URL, page.Error)
	}

	return nil
}

// historyDiff is the JSON shape of a comparison.
type historyDiff struct {
	Seed  string             `json:"seed"`
	Older database.RunRecord `json:"older"`
	Newer database.RunRecord `json:"newer"`
	Diff  *database.RunDiff  `json:"diff"`
}

// diffLatestRuns compares the latest two runs of a seed.
func diffLatestRuns(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	runs, err := db.GetCrawlHistory(ctx, opts.seed, 2)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}
	if len(runs) < 2 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	newer, older := runs[0], runs[1]
	diff, err := db.DiffRuns(ctx, older.ID, newer.ID)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(out, historyDiff{Seed: opts.seed, Older: older, Newer: newer, Diff: diff})
	}

	fmt.Fprintf(out, "Comparing runs %d and %d of %s\n\n", older.ID, newer.ID, opts.seed)
	if !diff.HasChanges() {
		fmt.Fprintf(out, "No changes (%d pages unchanged)\n", diff.Unchanged)
		return nil
	}

	writeURLSection(out, "Added", "+", diff.Added)
	writeURLSection(out, "Removed", "-", diff.Removed)
	writeURLSection(out, "Changed", "~", diff.Changed)
	fmt.Fprintf(out, "Unchanged: %d\n", diff.Unchanged)

	return nil
}

func writeURLSection(out io.Writer, title, marker string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s %s\n", marker, u)
	}
	fmt.Fprintln(out)
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(v)
	return err
}

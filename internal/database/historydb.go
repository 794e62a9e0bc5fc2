package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docmirror/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "docmirror.db"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// HistoryDB stores crawl runs and their pages.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so the history command can
	// read while a crawl is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// With CreateIfNotExists false, a missing database is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		origin TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		saved_count INTEGER NOT NULL DEFAULT 0,
		fetch_failures INTEGER NOT NULL DEFAULT 0,
		io_failures INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- One row per processed page of a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL DEFAULT 0,
		status_code INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		digest TEXT NOT NULL DEFAULT '',
		links_found INTEGER NOT NULL DEFAULT 0,
		error_kind TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		fetched_at TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run without its pages.
type RunRecord struct {
	ID            int64     `json:"id"`
	Seed          string    `json:"seed"`
	Origin        string    `json:"origin"`
	OutputDir     string    `json:"output_dir"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Cancelled     bool      `json:"cancelled"`
	PageCount     int       `json:"page_count"`
	SavedCount    int       `json:"saved_count"`
	FetchFailures int       `json:"fetch_failures"`
	IOFailures    int       `json:"io_failures"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveCrawl stores summary and its pages in one transaction and returns the
// new run ID.
func (hdb *HistoryDB) SaveCrawl(ctx context.Context, summary *model.CrawlSummary) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (seed, origin, output_dir, started_at, finished_at, cancelled,
		page_count, saved_count, fetch_failures, io_failures)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.Seed,
		summary.Origin,
		summary.OutputDir,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.FinishedAt),
		summary.Cancelled,
		len(summary.Pages),
		summary.SavedCount(),
		summary.FailureCount(model.ErrorKindFetch),
		summary.FailureCount(model.ErrorKindIO),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	// A URL is processed once per crawl, but UPSERT keeps SaveCrawl total
	// if a caller hands in a merged summary.
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, url, depth, status_code, title, path, digest, links_found,
		error_kind, error, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		depth = excluded.depth,
		status_code = excluded.status_code,
		title = excluded.title,
		path = excluded.path,
		digest = excluded.digest,
		links_found = excluded.links_found,
		error_kind = excluded.error_kind,
		error = excluded.error,
		fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range summary.Pages {
		_, err := stmt.ExecContext(ctx,
			runID,
			page.URL,
			page.Depth,
			page.StatusCode,
			page.Title,
			page.Path,
			page.Digest,
			page.LinksFound,
			string(page.ErrorKind),
			page.Error,
			formatTimestamp(page.FetchedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", page.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}

	return runID, nil
}

const runColumns = `id, seed, origin, output_dir, started_at, finished_at, cancelled,
	page_count, saved_count, fetch_failures, io_failures`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		run        RunRecord
		startedAt  string
		finishedAt string
	)

	err := s.Scan(
		&run.ID,
		&run.Seed,
		&run.Origin,
		&run.OutputDir,
		&startedAt,
		&finishedAt,
		&run.Cancelled,
		&run.PageCount,
		&run.SavedCount,
		&run.FetchFailures,
		&run.IOFailures,
	)
	if err != nil {
		return RunRecord{}, err
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)
	return run, nil
}

// GetRun retrieves one run by ID. It returns ErrNotFound for unknown IDs.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := hdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crawl run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	return &run, nil
}

// GetCrawlHistory returns runs newest first. An empty seed returns runs of
// all seeds; a limit of 0 or less returns every run.
func (hdb *HistoryDB) GetCrawlHistory(ctx context.Context, seed string, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs WHERE 1=1`
	args := make([]any, 0)

	if seed != "" {
		query += " AND seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListSeeds returns every seed with at least one stored run, sorted.
func (hdb *HistoryDB) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT seed FROM crawl_runs ORDER BY seed`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	seeds := make([]string, 0)
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// GetRunPages returns the pages of a run ordered by URL.
func (hdb *HistoryDB) GetRunPages(ctx context.Context, runID int64) ([]*model.PageResult, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT url, depth, status_code, title, path, digest, links_found, error_kind, error, fetched_at
	FROM pages
	WHERE run_id = ?
	ORDER BY url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*model.PageResult, 0)
	for rows.Next() {
		var (
			page      model.PageResult
			errorKind string
			fetchedAt string
		)
		err := rows.Scan(
			&page.URL,
			&page.Depth,
			&page.StatusCode,
			&page.Title,
			&page.Path,
			&page.Digest,
			&page.LinksFound,
			&errorKind,
			&page.Error,
			&fetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		page.ErrorKind = model.ErrorKind(errorKind)
		page.FetchedAt = parseTimestamp(fetchedAt)
		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

// DeleteRunsBefore removes runs that started before cutoff, with their
// pages, and returns how many runs were removed.
func (hdb *HistoryDB) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	ts := formatTimestamp(cutoff)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pages WHERE run_id IN (SELECT id FROM crawl_runs WHERE started_at < ?)`, ts); err != nil {
		return 0, fmt.Errorf("failed to delete pages: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM crawl_runs WHERE started_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to delete crawl runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}

	return result.RowsAffected()
}

// timestampLayout sorts lexically in time order, which the ORDER BY and
// cutoff comparisons rely on.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp parses a stored timestamp, returning the zero time for
// values in an unknown format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

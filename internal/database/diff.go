package database

import (
	"context"
	"sort"
)

// RunDiff lists how the saved pages of two runs differ.
// URLs are compared as recorded; only saved pages take part.
type RunDiff struct {
	// Added pages were saved in the newer run only.
	Added []string `json:"added"`

	// Removed pages were saved in the older run only.
	Removed []string `json:"removed"`

	// Changed pages were saved in both runs with different Markdown.
	Changed []string `json:"changed"`

	// Unchanged counts pages saved in both runs with identical Markdown.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether the runs differ at all.
func (d *RunDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// DiffRuns compares the saved pages of two runs by content digest.
func (hdb *HistoryDB) DiffRuns(ctx context.Context, olderID, newerID int64) (*RunDiff, error) {
	older, err := hdb.savedDigests(ctx, olderID)
	if err != nil {
		return nil, err
	}
	newer, err := hdb.savedDigests(ctx, newerID)
	if err != nil {
		return nil, err
	}

	diff := &RunDiff{
		Added:   make([]string, 0),
		Removed: make([]string, 0),
		Changed: make([]string, 0),
	}

	for url, digest := range newer {
		old, ok := older[url]
		switch {
		case !ok:
			diff.Added = append(diff.Added, url)
		case old != digest:
			diff.Changed = append(diff.Changed, url)
		default:
			diff.Unchanged++
		}
	}
	for url := range older {
		if _, ok := newer[url]; !ok {
			diff.Removed = append(diff.Removed, url)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)

	return diff, nil
}

// savedDigests maps URL to digest for the saved pages of a run.
func (hdb *HistoryDB) savedDigests(ctx context.Context, runID int64) (map[string]string, error) {
	if _, err := hdb.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	pages, err := hdb.GetRunPages(ctx, runID)
	if err != nil {
		return nil, err
	}

	digests := make(map[string]string, len(pages))
	for _, page := range pages {
		if page.Saved() {
			digests[page.URL] = page.Digest
		}
	}
	return digests, nil
}

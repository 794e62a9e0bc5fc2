// Package database records crawl history in SQLite.
//
// Every finished crawl is stored as one run with one row per processed
// page: where the page was written, the digest of its Markdown and why it
// failed, if it did. The history is for inspection (the history command and
// run diffs). The crawler never reads it, so a crawl always starts from
// scratch.
//
// Design decision: SQLite via modernc.org/sqlite keeps the history in a
// single CGO-free file under the XDG data directory.
package database

// Package storage writes rendered Markdown documents to the local filesystem.
//
// It holds two small pieces of the mirror:
//   - SanitizeFilename / StemFor: map a page title to a file name stem
//   - Sink: creates the output directory and writes one .md file per page
//
// Design decision: Files are named after page titles rather than URL paths
// so the mirror reads like the documentation's own table of contents. Two
// pages with the same title map to the same file; the later write wins.
// This collision is a known limitation and is not reported.
package storage

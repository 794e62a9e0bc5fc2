// Package batch crawls several seeds, each as an independent crawl.
//
// Every seed gets its own crawl: its own origin, visited set and, in the
// CLI, its own output directory. The runner only bounds how many of those
// crawls run at once and collects their summaries in seed order.
package batch

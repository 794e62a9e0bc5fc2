// Package main provides the entry point for the docmirror CLI.
//
// docmirror mirrors a documentation website to local Markdown files. It
// crawls every page reachable from a start URL within the same origin and
// saves each page as <Title>.md.
//
// Usage:
//
//	docmirror crawl https://docs.example.com/
//	docmirror crawl -o out -w 4 https://docs.example.com/ https://api.example.com/
//	docmirror history https://docs.example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}

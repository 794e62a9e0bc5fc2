// Package config provides configuration structures and utilities for
// docmirror: crawl and output settings from CLI flags, and per-site
// settings from an optional YAML file.
package config

package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// They carry no dynamic values so callers can match them with errors.Is.
var (
	// ErrNoSeed is returned when no start URL is given.
	ErrNoSeed = errors.New("no seed specified: provide at least one start URL")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would fail every request.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxDepth is returned when the maximum depth is negative.
	// Use 0 for no limit.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReportFormat is returned when the report format is not one
	// of text, markdown or json.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, markdown or json")
)

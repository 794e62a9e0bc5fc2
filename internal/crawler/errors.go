package crawler

import "errors"

var (
	// ErrInvalidSeed is returned when the start URL has no scheme or host.
	// It wraps scope.ErrInvalidURL.
	ErrInvalidSeed = errors.New("invalid seed url")

	// ErrOutputDirectory is returned when the output directory cannot be
	// created. It wraps storage.ErrIO.
	ErrOutputDirectory = errors.New("cannot prepare output directory")
)

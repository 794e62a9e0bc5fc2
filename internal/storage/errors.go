package storage

import "errors"

// ErrIO is wrapped by every error returned from this package.
// Callers use errors.Is(err, ErrIO) to tell filesystem failures apart from
// fetch or parse failures.
var ErrIO = errors.New("i/o error")

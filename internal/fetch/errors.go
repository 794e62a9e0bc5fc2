package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFetch is wrapped by every *Error.
	ErrFetch = errors.New("fetch failed")

	// ErrBodyTooLarge is returned when a response body exceeds the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Error describes a failed fetch of one URL.
type Error struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status, or 0 if no response arrived.
	StatusCode int

	// Err is the underlying transport error, nil for a bad status.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Unwrap lets errors.Is match both ErrFetch and the transport error.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFetch, e.Err}
	}
	return []error{ErrFetch}
}

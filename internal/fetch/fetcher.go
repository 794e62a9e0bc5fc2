package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nao1215/docmirror/internal/model"
)

// DefaultMaxBodySize is the response size limit used when none is set.
const DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// Fetcher downloads a single URL.
//
// Implementations must be safe for concurrent use. A non-nil error must
// mean the page is unusable; the crawler never inspects a page returned
// alongside an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.FetchedPage, error)
}

// HTTPFetcher fetches pages with an http.Client.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header. Empty keeps Go's default.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the largest response body accepted. A larger body
// fails the fetch with ErrBodyTooLarge.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithFetcherLogger sets the logger for request-level debug output.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher returns a Fetcher backed by client.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch issues one GET request for url.
// Transport errors, timeouts and non-2xx statuses return an *Error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*model.FetchedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	f.logger.Debug("response received",
		"url", url,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, &Error{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &Error{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBodySize),
		}
	}

	return &model.FetchedPage{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        body,
	}, nil
}

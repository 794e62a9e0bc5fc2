package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestHTTPFetcher tests fetching pages over HTTP.
func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns body and status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>hi</body></html>"))
		}))
		defer server.Close()

		client, err := NewHTTPClient(WithTimeout(5 * time.Second))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		page, err := NewHTTPFetcher(client).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", page.StatusCode)
		}
		if !strings.Contains(string(page.Body), "hi") {
			t.Errorf("unexpected body %q", page.Body)
		}
		if !strings.HasPrefix(page.ContentType, "text/html") {
			t.Errorf("unexpected content type %q", page.ContentType)
		}
	})

	t.Run("non-2xx status is a fetch error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		client, err := NewHTTPClient()
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		_, err = NewHTTPFetcher(client).Fetch(context.Background(), server.URL+"/missing")
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}

		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if fetchErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", fetchErr.StatusCode)
		}
		if !strings.Contains(err.Error(), "404 Not Found") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("timeout is a fetch error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(5 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer server.Close()

		client, err := NewHTTPClient(WithTimeout(50 * time.Millisecond))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		_, err = NewHTTPFetcher(client).Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrFetch) {
			t.Errorf("expected ErrFetch on timeout, got %v", err)
		}
	})

	t.Run("unreachable host is a fetch error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		client, err := NewHTTPClient(WithTimeout(2 * time.Second))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		_, err = NewHTTPFetcher(client).Fetch(context.Background(), addr)
		if !errors.Is(err, ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("body at the size limit is read whole", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		}))
		defer server.Close()

		client, err := NewHTTPClient()
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		page, err := NewHTTPFetcher(client, WithMaxBodySize(100)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(page.Body) != 100 {
			t.Errorf("expected 100 bytes, got %d", len(page.Body))
		}
	})

	t.Run("body over the size limit fails the fetch", func(t *testing.T) {
		t.Parallel()

		body := "<html><body>" + strings.Repeat("x", 120) + `<a href="/tail">tail</a></body></html>`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		defer server.Close()

		client, err := NewHTTPClient()
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		page, err := NewHTTPFetcher(client, WithMaxBodySize(50)).Fetch(context.Background(), server.URL)
		if page != nil {
			t.Errorf("expected no page, got %d bytes", len(page.Body))
		}
		if !errors.Is(err, ErrBodyTooLarge) || !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrBodyTooLarge wrapped as ErrFetch, got %v", err)
		}

		var fetchErr *Error
		if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusOK {
			t.Errorf("expected *Error with status 200, got %#v", err)
		}
	})
}

// TestHTTPClientHeaders tests static header and cookie injection.
func TestHTTPClientHeaders(t *testing.T) {
	t.Parallel()

	got := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
	}))
	defer server.Close()

	client, err := NewHTTPClient(
		WithCookie("session=abc"),
		WithHeaders(map[string]string{"X-Docs-Version": "v2"}),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	fetcher := NewHTTPFetcher(client, WithUserAgent("docmirror-test"))
	if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	header := <-got
	if header.Get("Cookie") != "session=abc" {
		t.Errorf("expected cookie, got %q", header.Get("Cookie"))
	}
	if header.Get("X-Docs-Version") != "v2" {
		t.Errorf("expected header, got %q", header.Get("X-Docs-Version"))
	}
	if header.Get("User-Agent") != "docmirror-test" {
		t.Errorf("expected user agent, got %q", header.Get("User-Agent"))
	}
}

// TestNewHTTPClientProxy tests SOCKS5 proxy address validation.
func TestNewHTTPClientProxy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid address", address: "127.0.0.1:9050", wantErr: false},
		{name: "hostname", address: "proxy.local:1080", wantErr: false},
		{name: "missing port", address: "127.0.0.1", wantErr: true},
		{name: "port zero", address: "127.0.0.1:0", wantErr: true},
		{name: "port too large", address: "127.0.0.1:70000", wantErr: true},
		{name: "empty host", address: ":9050", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewHTTPClient(WithSOCKS5Proxy(tt.address))
			if tt.wantErr && !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

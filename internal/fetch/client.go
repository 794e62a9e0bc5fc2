package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains so a redirect loop becomes a fetch
// failure instead of a hang.
const maxRedirects = 10

// ClientOption configures the http.Client built by NewHTTPClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	timeout      time.Duration
	proxyAddress string
	cookie       string
	headers      map[string]string
}

// WithTimeout sets the overall per-request timeout.
// A request exceeding it fails like any other fetch error.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithSOCKS5Proxy routes every connection through the SOCKS5 proxy at
// address ("host:port"). An empty address means direct connections.
func WithSOCKS5Proxy(address string) ClientOption {
	return func(c *clientConfig) {
		c.proxyAddress = address
	}
}

// WithCookie sends cookie (e.g. "name=value; other=x") with every request.
func WithCookie(cookie string) ClientOption {
	return func(c *clientConfig) {
		c.cookie = cookie
	}
}

// WithHeaders sends the given static headers with every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) {
		c.headers = headers
	}
}

// NewHTTPClient builds the http.Client used for crawling.
//
// Cookies set by the site are kept in a jar for the client's lifetime, which
// is one crawl. Static headers and cookie are injected by a RoundTripper so
// redirected requests carry them too.
func NewHTTPClient(opts ...ClientOption) (*http.Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.MaxIdleConnsPerHost = 8

	if cfg.proxyAddress != "" {
		if !isValidProxyAddress(cfg.proxyAddress) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, cfg.proxyAddress)
		}
		dialer, err := proxy.SOCKS5("tcp", cfg.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer(dialer)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	if cfg.cookie != "" || len(cfg.headers) > 0 {
		client.Transport = &headerInjectingTransport{
			base:    transport,
			cookie:  cfg.cookie,
			headers: cfg.headers,
		}
	}

	return client, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
// x/net's SOCKS5 dialer implements proxy.ContextDialer; the fallback only
// covers dialers that do not.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// isValidProxyAddress checks for "host:port" with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// headerInjectingTransport adds static headers and a cookie to every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}

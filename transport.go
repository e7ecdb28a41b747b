package nobrakes

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request is the transport-neutral description of a single HTTP exchange.
type Request struct {
	Method string
	URL    string
	Header map[string]string

	// Form, when non-nil, is sent urlencoded as the request body.
	Form url.Values
}

// Response carries the outcome of a Request. The body is fully read
// before the Response is returned, so adapters can release their wire
// resources deterministically no matter how the caller exits.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport is the single capability the scraper needs from an HTTP
// engine. Implementations must follow redirects themselves and must be
// safe for concurrent use; rate limiting and retry policy belong in
// Transport decorators, never in the scraper.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport, backed by net/http. It follows
// redirects (the net/http default) and stores no cookies.
type HTTPTransport struct {
	client *http.Client
}

type httpTransportOptionFunc func(*HTTPTransport)

// WithHTTPClient replaces the underlying client, e.g. to install a
// custom RoundTripper or cookie jar.
func WithHTTPClient(c *http.Client) httpTransportOptionFunc {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithHTTPTimeout sets the per-request timeout on the underlying client.
func WithHTTPTimeout(d time.Duration) httpTransportOptionFunc {
	return func(t *HTTPTransport) {
		t.client.Timeout = d
	}
}

func NewHTTPTransport(optFns ...httpTransportOptionFunc) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, optFn := range optFns {
		optFn(t)
	}
	return t
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Header {
		hr.Header.Set(k, v)
	}
	if req.Form != nil {
		hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.client.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}

package nobrakes

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
)

const defaultMaxRedirects = 10

// FastHTTPTransport adapts a fasthttp client to the Transport contract.
// fasthttp does not follow redirects by itself, so the adapter does.
type FastHTTPTransport struct {
	client       *fasthttp.Client
	maxRedirects int
}

type fastHTTPTransportOptionFunc func(*FastHTTPTransport)

// WithFastHTTPClient replaces the underlying fasthttp client.
func WithFastHTTPClient(c *fasthttp.Client) fastHTTPTransportOptionFunc {
	return func(t *FastHTTPTransport) {
		t.client = c
	}
}

// WithMaxRedirects caps how many redirects a single request may follow.
func WithMaxRedirects(n int) fastHTTPTransportOptionFunc {
	return func(t *FastHTTPTransport) {
		t.maxRedirects = n
	}
}

func NewFastHTTPTransport(optFns ...fastHTTPTransportOptionFunc) *FastHTTPTransport {
	t := &FastHTTPTransport{
		client:       &fasthttp.Client{},
		maxRedirects: defaultMaxRedirects,
	}
	for _, optFn := range optFns {
		optFn(t)
	}
	return t
}

func (t *FastHTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(freq)
		fasthttp.ReleaseResponse(fresp)
	}

	freq.Header.SetMethod(req.Method)
	freq.SetRequestURI(req.URL)
	for k, v := range req.Header {
		freq.Header.Set(k, v)
	}
	if req.Form != nil {
		freq.Header.SetContentType("application/x-www-form-urlencoded")
		freq.SetBodyString(req.Form.Encode())
	}

	done := make(chan error, 1)
	go func() {
		done <- t.client.DoRedirects(freq, fresp, t.maxRedirects)
	}()

	select {
	case <-ctx.Done():
		// The in-flight exchange still owns freq/fresp; release them
		// once it finishes.
		go func() {
			<-done
			release()
		}()
		return nil, ctx.Err()
	case err := <-done:
		defer release()
		if err != nil {
			return nil, err
		}

		header := make(http.Header)
		fresp.Header.VisitAll(func(k, v []byte) {
			header.Add(string(k), string(v))
		})

		return &Response{
			StatusCode: fresp.StatusCode(),
			Header:     header,
			Body:       append([]byte(nil), fresp.Body()...),
		}, nil
	}
}

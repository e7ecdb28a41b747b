package nobrakes

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// RestyTransport adapts a resty client to the Transport contract. The
// caller keeps ownership of the client and its configuration; redirects
// follow the client's policy, which defaults to auto-follow.
type RestyTransport struct {
	client *resty.Client
}

type restyTransportOptionFunc func(*RestyTransport)

// WithDiscardCookies drops the client's cookie jar so responses cannot
// grow session state between requests.
func WithDiscardCookies() restyTransportOptionFunc {
	return func(t *RestyTransport) {
		t.client.SetCookieJar(nil)
	}
}

// NewRestyTransport wraps client, or a fresh resty.New() when client is
// nil.
func NewRestyTransport(client *resty.Client, optFns ...restyTransportOptionFunc) *RestyTransport {
	if client == nil {
		client = resty.New()
	}
	t := &RestyTransport{client: client}
	for _, optFn := range optFns {
		optFn(t)
	}
	return t
}

func (t *RestyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(ctx).SetHeaders(req.Header)
	if req.Form != nil {
		r.SetFormDataFromValues(req.Form)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

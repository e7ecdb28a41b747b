package nobrakes

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledTransport spaces requests through a token bucket before
// handing them to the wrapped Transport. Blocking honors the request
// context, so a cancelled batch never sits in the limiter queue.
type ThrottledTransport struct {
	next    Transport
	limiter *rate.Limiter
}

func NewThrottledTransport(next Transport, limit rate.Limit, burst int) *ThrottledTransport {
	return &ThrottledTransport{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *ThrottledTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Do(ctx, req)
}

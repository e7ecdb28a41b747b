package nobrakes

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type randomSource interface {
	Int63n(n int64) int64
}

type defaultRandom struct{}

func (defaultRandom) Int63n(n int64) int64 {
	return rand.Int63n(n)
}

var (
	defaultMinDelay   = 100 * time.Millisecond
	defaultMaxDelay   = 10 * time.Second
	defaultMultiplier = 2.0
	defaultMaxAttempt = uint8(4)
)

type exponentialBackoff struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	multiplier float64
	attempt    uint8
	maxAttempt uint8

	random  randomSource
	backoff jitterBackoff
}

type backoffOptionFunc func(*exponentialBackoff)

func withMinDelay(d time.Duration) backoffOptionFunc {
	return func(eb *exponentialBackoff) {
		eb.minDelay = d
	}
}

func withMaxDelay(d time.Duration) backoffOptionFunc {
	return func(eb *exponentialBackoff) {
		eb.maxDelay = d
	}
}

func withMultiplier(m float64) backoffOptionFunc {
	return func(eb *exponentialBackoff) {
		eb.multiplier = m
	}
}

func withMaxAttempt(a uint8) backoffOptionFunc {
	return func(eb *exponentialBackoff) {
		eb.maxAttempt = a
	}
}

func withRandomSource(r randomSource) backoffOptionFunc {
	return func(eb *exponentialBackoff) {
		eb.random = r
	}
}

func newExponentialBackoff(optFns ...backoffOptionFunc) *exponentialBackoff {
	eb := &exponentialBackoff{
		minDelay:   defaultMinDelay,
		maxDelay:   defaultMaxDelay,
		multiplier: defaultMultiplier,
		maxAttempt: defaultMaxAttempt,
		random:     defaultRandom{},
	}
	for _, optFn := range optFns {
		optFn(eb)
	}

	eb.backoff = fullJitterBuilder(eb.minDelay, eb.maxDelay, eb.multiplier, eb.random)
	return eb
}

func (eb *exponentialBackoff) next() time.Duration {
	eb.attempt++
	return eb.backoff(eb.attempt)
}

func (eb *exponentialBackoff) exhausted() bool {
	return eb.attempt >= eb.maxAttempt
}

type jitterBackoff func(attempt uint8) time.Duration

func fullJitterBuilder(minDelay, capacity time.Duration, multiplier float64, random randomSource) jitterBackoff {
	return func(attempt uint8) time.Duration {
		base := float64(minDelay)
		temp := math.Min(float64(capacity), base*math.Pow(float64(attempt), multiplier))
		diff := int64(temp) - int64(base)
		if diff <= 0 {
			diff = 1
		}
		return time.Duration(random.Int63n(diff) + int64(base))
	}
}

// RetryTransport retries failed exchanges with exponential backoff and
// full jitter. Transport errors and 5xx statuses are retried; everything
// else is returned as-is. The scraper never installs this itself.
type RetryTransport struct {
	next       Transport
	backoffFns []backoffOptionFunc
}

func NewRetryTransport(next Transport, optFns ...backoffOptionFunc) *RetryTransport {
	return &RetryTransport{next: next, backoffFns: optFns}
}

func (t *RetryTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	eb := newExponentialBackoff(t.backoffFns...)

	var lastErr error
	for {
		resp, err := t.next.Do(ctx, req)
		switch {
		case err == nil && resp.StatusCode < 500:
			return resp, nil
		case err == nil:
			lastErr = &TransportError{URL: req.URL, StatusCode: resp.StatusCode}
		default:
			lastErr = err
		}

		if eb.exhausted() {
			return nil, lastErr
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(eb.next()):
		}
	}
}

package nobrakes

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestThrottledTransport(t *testing.T) {
	t.Run("Successfully space out requests", func(t *testing.T) {
		server := createTestServer(func(rw http.ResponseWriter, req *http.Request) {
			rw.WriteHeader(http.StatusOK)
		})
		defer server.Close()

		transport := NewThrottledTransport(NewHTTPTransport(), rate.Every(20*time.Millisecond), 1)

		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := transport.Do(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
			require.NoError(t, err)
		}

		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond,
			"three requests at one per 20ms should take at least 40ms")
	})

	t.Run("Fail fast on cancelled context", func(t *testing.T) {
		transport := NewThrottledTransport(new(mockTransport), rate.Every(time.Hour), 1)

		// Drain the single burst token.
		require.NoError(t, transport.limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := transport.Do(ctx, &Request{Method: http.MethodGet, URL: "http://example.com"})
		assert.Error(t, err, "waiting for an hour-long refill should fail with the context")
	})
}

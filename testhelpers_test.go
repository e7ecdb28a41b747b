package nobrakes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/svemotools/nobrakes/internal/svemopages"
)

func createTestServer(fn func(rw http.ResponseWriter, req *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(fn))
}

// newSiteServer serves the fake source site for the scraper tests.
func newSiteServer(t *testing.T, site *svemopages.Site) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(site.Handler())
	t.Cleanup(server.Close)
	return server
}

// newSiteScraper builds a scraper pointed at the fake site.
func newSiteScraper(server *httptest.Server, opts ...Option) *Scraper {
	opts = append([]Option{
		WithLogger(noopLogger{}),
		WithHomeURL(server.URL),
		WithDataURL(server.URL),
	}, opts...)
	return New(NewHTTPTransport(), opts...)
}

// launchSiteScraper launches against the fake site and fails the test on
// error.
func launchSiteScraper(t *testing.T, server *httptest.Server, language Language, seasons []int, opts ...Option) *Scraper {
	t.Helper()
	s := newSiteScraper(server, opts...)
	require.NoError(t, s.Launch(context.Background(), TierElite, language, seasons...))
	return s
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*Response), args.Error(1)
	}
	return nil, args.Error(1)
}

package nobrakes

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLaunched is returned by every page method called before a
	// successful Launch.
	ErrNotLaunched = errors.New("nobrakes: scraper has not been launched")

	// ErrUnknownSeason is returned when a page is requested for a season
	// that was not included at launch.
	ErrUnknownSeason = errors.New("nobrakes: season was not included at launch")

	// ErrPageLimit is returned when a paginated table spans more pages
	// than the configured limit.
	ErrPageLimit = errors.New("nobrakes: table page limit exceeded")
)

// TransportError reports a failed HTTP exchange: either the adapter
// returned an error, or the response carried a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nobrakes: request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("nobrakes: unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CoordinatesError reports a (tier, season) combination that cannot be
// launched, either because an argument is out of range or because the
// source site has no results page for it.
type CoordinatesError struct {
	Tier   Tier
	Season int
	Reason string
}

func (e *CoordinatesError) Error() string {
	return fmt.Sprintf("nobrakes: tier %d season %d unavailable: %s", e.Tier, e.Season, e.Reason)
}

// PageNotFoundError reports a two-hop page whose link is absent from the
// parent table row, e.g. an event without a scorecard link.
type PageNotFoundError struct {
	Category Category
	Key      string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("nobrakes: no %s page linked for %q", e.Category, e.Key)
}

// MalformedPageError reports a page whose layout diverged from the
// expected shape: a mandatory fragment is missing, or a present fragment
// failed its typed parse.
type MalformedPageError struct {
	Category Category
	Fragment string
	Err      error
}

func (e *MalformedPageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nobrakes: malformed %s page: %s: %v", e.Category, e.Fragment, e.Err)
	}
	return fmt.Sprintf("nobrakes: malformed %s page: missing %s", e.Category, e.Fragment)
}

func (e *MalformedPageError) Unwrap() error { return e.Err }

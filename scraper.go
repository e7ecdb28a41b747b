package nobrakes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHomeURL = "https://www.svemo.se"
	defaultDataURL = "https://ta.svemo.se"

	firstAvailableSeason = 2011

	defaultPageSize  = 50
	defaultPageLimit = 5
)

// session is the immutable state a successful Launch installs: request
// headers and the per-season tab URLs. Page methods read it under RLock;
// a relaunch swaps the whole thing.
type session struct {
	tier     Tier
	language Language
	headers  map[string]string
	tabURLs  map[int]map[Category]string
}

func (sess *session) tabURL(category Category, season int) (string, error) {
	urls, ok := sess.tabURLs[season]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownSeason, season)
	}
	return urls[category], nil
}

type pageKey struct {
	category Category
	season   int
}

// Scraper fetches structured page data from the source site. Construct
// with New, then Launch once before calling any page method. A launched
// Scraper is safe for concurrent use.
type Scraper struct {
	id              string
	transport       Transport
	documentCreator DocumentCreator
	logger          Logger
	userAgent       string
	pageSize        int
	pageLimit       int
	homeURL         string
	dataURL         string

	mu    sync.RWMutex
	sess  *session
	cache map[pageKey]*goquery.Selection
}

// New returns an unlaunched Scraper using the given transport. A nil
// transport falls back to the net/http default.
func New(transport Transport, opts ...Option) *Scraper {
	if transport == nil {
		transport = NewHTTPTransport()
	}

	s := &Scraper{
		id:              uuid.NewString(),
		transport:       transport,
		documentCreator: defaultDocumentCreator{},
		pageSize:        defaultPageSize,
		pageLimit:       defaultPageLimit,
		homeURL:         defaultHomeURL,
		dataURL:         defaultDataURL,
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	if s.logger == nil {
		s.logger = newDefaultLogger(s.id)
	}
	return s
}

func validateLaunchArgs(tier Tier, language Language, seasons []int) error {
	if _, ok := tierAliases[tier]; !ok {
		return &CoordinatesError{Tier: tier, Reason: "unknown tier"}
	}
	if language != LanguageSwedish && language != LanguageEnglish {
		return fmt.Errorf("nobrakes: unknown language %q", language)
	}
	if len(seasons) == 0 {
		return fmt.Errorf("nobrakes: at least one season is required")
	}
	for _, season := range seasons {
		if season < firstAvailableSeason {
			return &CoordinatesError{
				Tier:   tier,
				Season: season,
				Reason: fmt.Sprintf("first available season is %d", firstAvailableSeason),
			}
		}
	}
	return nil
}

// Launch fixes the scraper's coordinates. It discovers the results hub
// URL of every requested season from the home page navigation, fetches
// each hub concurrently and records the five tab URLs per season. State
// is committed only after every season succeeds; a failed Launch leaves
// the scraper unlaunched. Relaunching replaces the session entirely.
func (s *Scraper) Launch(ctx context.Context, tier Tier, language Language, seasons ...int) error {
	if err := validateLaunchArgs(tier, language, seasons); err != nil {
		return err
	}

	headers := map[string]string{
		"accept": "text/html",
		"cookie": "Svemo.TA.Language.SelectedLanguage=" + string(language),
	}
	if s.userAgent != "" {
		headers["user-agent"] = s.userAgent
	}

	s.logger.Info("Launching scraper", LogContext{
		"tier":     tier,
		"language": language,
		"seasons":  seasons,
	})

	doc, err := s.do(ctx, http.MethodGet, s.homeURL, headers, nil)
	if err != nil {
		return err
	}
	seasonURLs, err := homeSeasonURLs(doc, tier, seasons)
	if err != nil {
		return err
	}

	tabURLs := make(map[int]map[Category]string, len(seasonURLs))
	var tabMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for season, hubURL := range seasonURLs {
		season, hubURL := season, hubURL
		g.Go(func() error {
			hubDoc, err := s.do(gctx, http.MethodGet, hubURL, headers, nil)
			if err != nil {
				return err
			}
			urls, err := resultsHubURLs(hubDoc, s.dataURL)
			if err != nil {
				return err
			}
			tabMu.Lock()
			tabURLs[season] = urls
			tabMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Launch failed", LogContext{"error": err.Error()})
		return err
	}

	s.mu.Lock()
	s.sess = &session{
		tier:     tier,
		language: language,
		headers:  headers,
		tabURLs:  tabURLs,
	}
	s.cache = make(map[pageKey]*goquery.Selection)
	s.mu.Unlock()

	s.logger.Info("Scraper launched", LogContext{"seasons": len(tabURLs)})
	return nil
}

// currentSession returns the launched session state, or ErrNotLaunched.
func (s *Scraper) currentSession() (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, ErrNotLaunched
	}
	return s.sess, nil
}

// Language returns the language the scraper was launched with, and false
// if it has not been launched.
func (s *Scraper) Language() (Language, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return "", false
	}
	return s.sess.language, true
}

// do performs one exchange and parses the body into a document. Non-2xx
// statuses and engine failures both surface as *TransportError.
func (s *Scraper) do(ctx context.Context, method, rawURL string, headers map[string]string, form url.Values) (*goquery.Document, error) {
	s.logger.Debug("Fetching page", LogContext{"method": method, "url": rawURL})

	resp, err := s.transport.Do(ctx, &Request{
		Method: method,
		URL:    rawURL,
		Header: headers,
		Form:   form,
	})
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	doc, err := s.documentCreator.Parse(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("nobrakes: parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// fetchDocument is do with the launched session's headers.
func (s *Scraper) fetchDocument(ctx context.Context, method, rawURL string, form url.Values) (*goquery.Document, error) {
	sess, err := s.currentSession()
	if err != nil {
		return nil, err
	}
	return s.do(ctx, method, rawURL, sess.headers, form)
}

// CallOption adjusts a single page method call.
type CallOption interface {
	applyCall(*callConfig)
}

type callConfig struct {
	cache bool
}

type callOptionFunc func(*callConfig)

func (f callOptionFunc) applyCall(c *callConfig) {
	f(c)
}

// CacheResult keeps the fetched table on the scraper so Scorecards and
// Squads reuse it instead of refetching.
func CacheResult() CallOption {
	return callOptionFunc(func(c *callConfig) {
		c.cache = true
	})
}

func newCallConfig(opts []CallOption) callConfig {
	var cfg callConfig
	for _, opt := range opts {
		opt.applyCall(&cfg)
	}
	return cfg
}

func (s *Scraper) storeCachedTable(category Category, season int, table *goquery.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		s.cache[pageKey{category, season}] = table.Clone()
	}
}

func (s *Scraper) cachedTable(category Category, season int) (*goquery.Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.cache[pageKey{category, season}]
	if !ok {
		return nil, false
	}
	return table.Clone(), true
}

// Events fetches the events page for season, walking every table page and
// returning the accumulated rows.
func (s *Scraper) Events(ctx context.Context, season int, opts ...CallOption) (*EventsElements, error) {
	sess, err := s.currentSession()
	if err != nil {
		return nil, err
	}
	rawURL, err := sess.tabURL(CategoryEvents, season)
	if err != nil {
		return nil, err
	}

	table, err := s.browsePagedTable(ctx, rawURL, CategoryEvents)
	if err != nil {
		return nil, err
	}
	if newCallConfig(opts).cache {
		s.storeCachedTable(CategoryEvents, season, table)
	}
	return &EventsElements{Table: table}, nil
}

// Standings fetches the standings page for season. With no labels every
// fragment is extracted; playoff trees that do not exist on the page stay
// nil.
func (s *Scraper) Standings(ctx context.Context, season int, labels ...Label) (*StandingsElements, error) {
	set, err := newLabelSet(CategoryStandings, labels)
	if err != nil {
		return nil, err
	}
	doc, err := s.fetchTabPage(ctx, CategoryStandings, season)
	if err != nil {
		return nil, err
	}
	return extractStandings(doc, set)
}

// Teams fetches the teams page for season.
func (s *Scraper) Teams(ctx context.Context, season int, opts ...CallOption) (*TeamsElements, error) {
	doc, err := s.fetchTabPage(ctx, CategoryTeams, season)
	if err != nil {
		return nil, err
	}
	elements, err := extractTeams(doc)
	if err != nil {
		return nil, err
	}
	if newCallConfig(opts).cache {
		s.storeCachedTable(CategoryTeams, season, elements.Table)
	}
	return elements, nil
}

// RiderAverages fetches the rider averages page for season.
func (s *Scraper) RiderAverages(ctx context.Context, season int) (*RiderAveragesElements, error) {
	doc, err := s.fetchTabPage(ctx, CategoryRiderAverages, season)
	if err != nil {
		return nil, err
	}
	return extractRiderAverages(doc)
}

// Attendance fetches the attendance page for season. Both fragments are
// optional on the source site; a missing one stays nil.
func (s *Scraper) Attendance(ctx context.Context, season int, labels ...Label) (*AttendanceElements, error) {
	set, err := newLabelSet(CategoryAttendance, labels)
	if err != nil {
		return nil, err
	}
	doc, err := s.fetchTabPage(ctx, CategoryAttendance, season)
	if err != nil {
		return nil, err
	}
	return extractAttendance(doc, set)
}

func (s *Scraper) fetchTabPage(ctx context.Context, category Category, season int) (*goquery.Document, error) {
	sess, err := s.currentSession()
	if err != nil {
		return nil, err
	}
	rawURL, err := sess.tabURL(category, season)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Fetching tab page", LogContext{
		"category": category,
		"season":   season,
	})
	return s.do(ctx, http.MethodGet, rawURL, sess.headers, nil)
}

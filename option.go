package nobrakes

type Option interface {
	apply(*Scraper)
}

type optionFunc func(*Scraper)

func (f optionFunc) apply(s *Scraper) {
	f(s)
}

// WithLogger replaces the default zap-backed logger.
func WithLogger(logger Logger) Option {
	return optionFunc(func(s *Scraper) {
		s.logger = logger
	})
}

// WithDocumentCreator replaces the default HTML parser.
func WithDocumentCreator(dc DocumentCreator) Option {
	return optionFunc(func(s *Scraper) {
		s.documentCreator = dc
	})
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return optionFunc(func(s *Scraper) {
		s.userAgent = ua
	})
}

// WithPageSize sets the requested page size for paginated tables. The
// site caps the effective value at 50.
func WithPageSize(size int) Option {
	return optionFunc(func(s *Scraper) {
		s.pageSize = size
	})
}

// WithPageLimit caps how many pages of a single table the scraper will
// walk before giving up with ErrPageLimit.
func WithPageLimit(limit int) Option {
	return optionFunc(func(s *Scraper) {
		s.pageLimit = limit
	})
}

// WithHomeURL overrides the public site root the launch sequence starts
// from. Mainly useful against a local test server.
func WithHomeURL(u string) Option {
	return optionFunc(func(s *Scraper) {
		s.homeURL = u
	})
}

// WithDataURL overrides the results application root that relative tab
// and scorecard links resolve against.
func WithDataURL(u string) Option {
	return optionFunc(func(s *Scraper) {
		s.dataURL = u
	})
}

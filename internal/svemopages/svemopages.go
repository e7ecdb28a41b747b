// Package svemopages serves a miniature rendition of the source site for
// tests and the mock server. The page structure mirrors the real markup
// closely enough for the scraper's selectors: the offcanvas navigation
// accordion, tab hubs, Web Forms grids with viewstate pagination, and
// locale-dependent number rendering driven by the language cookie.
package svemopages

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

const languageCookie = "Svemo.TA.Language.SelectedLanguage"

// Site describes the fake season data. The zero value is not usable;
// call NewSite for sensible defaults.
type Site struct {
	// PreviousSeasons appear as accordion entries on the home page.
	PreviousSeasons []int
	// CurrentSeason appears as a direct results link. Zero omits it.
	CurrentSeason int
	// EventsPageCount splits the events table over this many grid pages.
	EventsPageCount int
	// HideAttendanceTable drops the per-event table from the attendance
	// page, leaving only the average paragraph.
	HideAttendanceTable bool
	// HideAttendanceAverage drops the average paragraph.
	HideAttendanceAverage bool

	mu       sync.Mutex
	requests map[string]int
}

// NewSite returns a Site with two previous seasons, a current season and
// a two-page events grid.
func NewSite() *Site {
	return &Site{
		PreviousSeasons: []int{2022, 2023},
		CurrentSeason:   2024,
		EventsPageCount: 2,
	}
}

// RequestCount returns how many requests hit the given path.
func (s *Site) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *Site) record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests == nil {
		s.requests = make(map[string]int)
	}
	s.requests[path]++
}

func requestLanguage(r *http.Request) string {
	if c, err := r.Cookie(languageCookie); err == nil && c.Value == "en-us" {
		return "en-us"
	}
	return "sv-se"
}

// pick returns sv for Swedish requests and en otherwise.
func pick(lang, sv, en string) string {
	if lang == "en-us" {
		return en
	}
	return sv
}

// groupInt renders n with the locale's thousands separator.
func groupInt(n int, lang string) string {
	digits := strconv.Itoa(n)
	sep := pick(lang, " ", ",")
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, sep)
}

// decimal renders a number given its integer and fraction digits, using
// the locale's decimal mark.
func decimal(whole, fraction string, lang string) string {
	return whole + pick(lang, ",", ".") + fraction
}

// Handler returns the fake site. All paths are relative, so one test
// server can act as both the home and the data domain.
func (s *Site) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homePage)
	mux.HandleFunc("/resultat/", s.hubPage)
	mux.HandleFunc("/resultat2/", s.hubPage)
	mux.HandleFunc("/ta/Events.aspx", s.eventsPage)
	mux.HandleFunc("/ta/Standings.aspx", s.standingsPage)
	mux.HandleFunc("/ta/Teams.aspx", s.teamsPage)
	mux.HandleFunc("/ta/RiderAverages.aspx", s.riderAveragesPage)
	mux.HandleFunc("/ta/Attendance.aspx", s.attendancePage)
	mux.HandleFunc("/ta/Scorecard.aspx", s.scorecardPage)
	mux.HandleFunc("/ta/Squad.aspx", s.squadPage)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.record(r.URL.Path)
		mux.ServeHTTP(w, r)
	})
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body>%s</body></html>", body)
}

func (s *Site) homePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var entries strings.Builder
	for _, season := range s.PreviousSeasons {
		fmt.Fprintf(&entries, `
      <div>
        <div><p><button><a>%d</a></button></p></div>
        <div><div><div>
          <a href="/resultat/%d">Bauhausligan</a>
          <a href="/resultat2/%d">Allsvenskan</a>
        </div></div></div>
      </div>`, season, season, season)
	}

	current := ""
	if s.CurrentSeason != 0 {
		current = fmt.Sprintf(
			`<a href="/resultat/%d">Resultat Bauhausligan</a>
       <a href="/resultat2/%d">Resultat Allsvenskan</a>`,
			s.CurrentSeason, s.CurrentSeason)
	}

	writeHTML(w, fmt.Sprintf(`
<div class="mx-6 my-0 p-0 main-menu-offcanvas offcanvas-body">
  <div class="accordion-item">
    <h2 class="accordion-header">
      <button class="accordion-button">
        <a href="https://www.svemo.se/vara-sportgrenar/start-speedway/resultat-speedway/">Resultat Speedway</a>
      </button>
    </h2>
    <div class="accordion-collapse">
      <div class="accordion-body">
        %s
        <div><div><div><div>%s
        </div></div></div></div>
      </div>
    </div>
  </div>
</div>`, current, entries.String()))
}

func (s *Site) hubPage(w http.ResponseWriter, r *http.Request) {
	season := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/resultat2/"), "/resultat/")
	if _, err := strconv.Atoi(season); err != nil {
		http.NotFound(w, r)
		return
	}

	// The events panel carries the broken pagesize parameter the real
	// site emits; the scraper is expected to rewrite it.
	writeHTML(w, fmt.Sprintf(`
<div class="tab-content">
  <div class="tab-pane"><div><div><iframe src="/ta/Events.aspx?season=%[1]s&pagesize=10”"></iframe></div></div></div>
  <div class="tab-pane"><div><div><a href="/ta/Standings.aspx?season=%[1]s">Tabell</a></div></div></div>
  <div class="tab-pane"><div><div><a href="/ta/Teams.aspx?season=%[1]s">Lag</a></div></div></div>
  <div class="tab-pane"><div><div><a href="/ta/RiderAverages.aspx?season=%[1]s">Snitt</a></div></div></div>
  <div class="tab-pane"><div><div><a href="/ta/Attendance.aspx?season=%[1]s">Publik</a></div></div></div>
</div>`, season))
}

// eventRow is one fixture event. Event 5 has no scorecard link.
type eventRow struct {
	date, name string
	scorecard  int
}

var eventRows = []eventRow{
	{"2023-05-02", "Lejonen - Smederna", 1},
	{"2023-05-09", "Dackarna - Vargarna", 2},
	{"2023-05-16", "Smederna - Dackarna", 3},
	{"2023-05-23", "Vargarna - Lejonen", 4},
	{"2023-09-01", "Lejonen - Dackarna", 0},
}

func (s *Site) eventsPage(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r)

	pages := s.EventsPageCount
	if pages < 1 {
		pages = 1
	}

	page := 1
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		state := r.PostFormValue("__VIEWSTATE")
		if r.PostFormValue("__EVENTTARGET") != "ctl00$grid$next" ||
			!strings.HasPrefix(state, "viewstate-page-") {
			http.Error(w, "bad postback", http.StatusInternalServerError)
			return
		}
		prev, err := strconv.Atoi(strings.TrimPrefix(state, "viewstate-page-"))
		if err != nil || prev < 1 || prev >= pages {
			http.Error(w, "bad viewstate", http.StatusInternalServerError)
			return
		}
		page = prev + 1
	}

	perPage := (len(eventRows) + pages - 1) / pages
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(eventRows) {
		end = len(eventRows)
	}

	var rows strings.Builder
	linkText := pick(lang, "Matchresultat", "Matchresults")
	for _, ev := range eventRows[start:end] {
		link := ""
		if ev.scorecard != 0 {
			link = fmt.Sprintf(`<a href="/ta/Scorecard.aspx?event=%d">%s</a>`, ev.scorecard, linkText)
		}
		fmt.Fprintf(&rows, `<tr><td>%s</td><td>%s</td><td>%s</td><td></td></tr>`, ev.date, ev.name, link)
	}

	pager := ""
	if pages > 1 {
		var numbers strings.Builder
		for n := 1; n <= pages; n++ {
			cls := ""
			if n == page {
				cls = ` class="rgCurrentPage"`
			}
			fmt.Fprintf(&numbers, `<a%s><span>%d</span></a>`, cls, n)
		}
		pager = fmt.Sprintf(`
  <tfoot><tr><td class="rgPagerCell NextPrevAndNumeric">
    <input class="rgPageNext" name="ctl00$grid$next" type="submit"/>
    <a class="rgCurrentPage"><span>%d</span></a>
    <div class="rgWrap rgNumPart">%s</div>
  </td></tr></tfoot>`, page, numbers.String())
	}

	writeHTML(w, fmt.Sprintf(`
<input id="__VIEWSTATE" type="hidden" value="viewstate-page-%d"/>
<table class="rgMasterTable">
  <thead><tr><th>%s</th><th>%s</th><th></th><th></th></tr></thead>%s
  <tbody>%s</tbody>
</table>`,
		page,
		pick(lang, "Datum", "Date"), pick(lang, "Match", "Event"),
		pager, rows.String()))
}

func (s *Site) standingsPage(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r)
	home := pick(lang, " (Hemmalag)", " (Home team)")

	writeHTML(w, fmt.Sprintf(`
<div id="ctl00_Body_Repeater1_ctl00_RadTreeList1">
  <table>
    <tr><td>Semifinal</td></tr>
    <tr><td>Semifinal 1</td></tr>
    <tr><td>2023-08-01</td></tr>
    <tr><td>Lejonen%[1]s</td><td>46</td></tr>
    <tr><td>Smederna</td><td>44</td></tr>
    <tr><td>2023-08-04</td></tr>
    <tr><td>Smederna%[1]s</td><td>47</td></tr>
    <tr><td>Lejonen</td><td>43</td></tr>
    <tr><td>Semifinal 2</td></tr>
    <tr><td>2023-08-02</td></tr>
    <tr><td>Dackarna%[1]s</td><td>51</td></tr>
    <tr><td>Vargarna</td><td>39</td></tr>
  </table>
</div>
<table class="rgMasterTable">
  <thead><tr><th>#</th><th>%s</th><th>M</th><th>V</th><th>O</th><th>F</th><th>P</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>Lejonen</td><td>14</td><td>11</td><td>1</td><td>2</td><td>34</td></tr>
    <tr><td>2</td><td>Smederna</td><td>14</td><td>9</td><td>2</td><td>3</td><td>29</td></tr>
  </tbody>
</table>`, home, pick(lang, "Lag", "Team")))
}

func (s *Site) teamsPage(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r)
	linkText := pick(lang, "Visa", "View")

	var rows strings.Builder
	for _, team := range []struct{ name, club, city string }{
		{"Lejonen", "Gislaveds MS", "Gislaved"},
		{"Smederna", "SMK Eskilstuna", "Eskilstuna"},
		{"Dackarna", "Målilla MK", "Målilla"},
		{"Vargarna", "Norrköpings MS", "Norrköping"},
	} {
		fmt.Fprintf(&rows,
			`<tr><td>%s</td><td>%s</td><td>%s</td><td><a href="/ta/Squad.aspx?team=%s">%s</a></td></tr>`,
			team.name, team.club, team.city, team.name, linkText)
	}

	writeHTML(w, fmt.Sprintf(`
<table class="rgMasterTable">
  <thead><tr><th>%s</th><th>%s</th><th>%s</th><th></th></tr></thead>
  <tbody>%s</tbody>
</table>`, pick(lang, "Lag", "Team"), pick(lang, "Klubb", "Club"), pick(lang, "Ort", "City"), rows.String()))
}

func (s *Site) riderAveragesPage(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r)

	writeHTML(w, fmt.Sprintf(`
<table class="rgMasterTable">
  <thead><tr><th>#</th><th>%s</th><th>%s</th><th>M</th><th>H</th><th>P</th><th>S</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>Fredrik%sLindgren</td><td>Smederna</td><td>14</td><td>62</td><td>%s</td><td>%s</td></tr>
    <tr><td>2</td><td>Jason Doyle</td><td>Lejonen</td><td>13</td><td>58</td><td>%s</td><td>%s</td></tr>
  </tbody>
</table>`,
		pick(lang, "Förare", "Rider"), pick(lang, "Lag", "Team"),
		" ",
		decimal(groupInt(1234, lang), "5", lang), decimal("2", "41", lang),
		decimal("118", "0", lang), decimal("2", "15", lang)))
}

func (s *Site) attendancePage(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r)

	var body strings.Builder
	if !s.HideAttendanceAverage {
		fmt.Fprintf(&body, `<p><b>%s</b> %s</p>`,
			pick(lang, "Genomsnitt:", "Average:"), groupInt(2448, lang))
	}
	if !s.HideAttendanceTable {
		fmt.Fprintf(&body, `
<table class="rgMasterTable">
  <thead><tr><th>%s</th><th>%s</th><th>%s</th></tr></thead>
  <tbody>
    <tr><td>2023-05-02</td><td>Lejonen - Smederna</td><td>%s</td></tr>
    <tr><td>2023-05-09</td><td>Dackarna - Vargarna</td><td>%s</td></tr>
  </tbody>
</table>`,
			pick(lang, "Datum", "Date"), pick(lang, "Match", "Event"), pick(lang, "Publik", "Attendance"),
			groupInt(2000, lang), groupInt(2896, lang))
	}
	writeHTML(w, body.String())
}

func (s *Site) scorecardPage(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r)
	if r.URL.Query().Get("event") == "" {
		http.NotFound(w, r)
		return
	}

	// The second rider cell holds the helmet color in the fallback row,
	// with a non-breaking space in the primary slot.
	writeHTML(w, fmt.Sprintf(`
<div class="floatLeft">
  <h2>Lejonen</h2><h2>46</h2>
  <h2>Smederna</h2><h2>44</h2>
</div>
<h3>%s %s</h3>
<table class="rgMasterTable">
  <thead><tr><th>Heat</th><th>1</th><th>2</th></tr></thead>
  <tbody>
    <tr class="DriverRow"><td>1</td>
      <td><table class="DriverSchema"><tbody>
        <tr><td><div>R</div></td><td><div>3</div></td><td><div>1</div></td></tr>
        <tr><td><div></div></td></tr>
      </tbody></table></td>
      <td><table class="DriverSchema"><tbody>
        <tr><td><div>%s</div></td><td><div>2</div></td><td><div>3</div></td></tr>
        <tr><td><div>B</div></td></tr>
      </tbody></table></td>
    </tr>
  </tbody>
</table>`,
		pick(lang, "Publik:", "Attendance:"), groupInt(2448, lang), " "))
}

func (s *Site) squadPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("team") == "" {
		http.NotFound(w, r)
		return
	}

	writeHTML(w, fmt.Sprintf(`
<div id="ctl00_Body_RadGrid1">
  <table>
    <thead><tr><th>Namn</th><th>Född</th><th>Nation</th></tr></thead>
    <tbody>
      <tr><td>Fredrik%[1]sLindgren</td><td>1985</td><td>SWE</td></tr>
      <tr><td>Jacob Thorssell</td><td>1993</td><td>SWE</td></tr>
    </tbody>
  </table>
</div>
<div id="ctl00_Body_RadGrid2">
  <table>
    <thead><tr><th>Namn</th><th>Född</th><th>Nation</th></tr></thead>
    <tbody><tr class="rgNoRecords"><td>Inga poster</td></tr></tbody>
  </table>
</div>`, " "))
}

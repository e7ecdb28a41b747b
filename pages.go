package nobrakes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Element bags hold the raw page fragments a fetch pulled out of a
// document. A nil selection means the fragment was not requested or does
// not exist on the page; the typed transforms in model.go turn that into
// absent fields.

// EventsElements holds the fragments of an events page.
type EventsElements struct {
	// Table lists one row per event, with scorecard and heat data links
	// in the third and fourth columns.
	Table *goquery.Selection
}

// StandingsElements holds the fragments of a standings page. The playoff
// format varies by season, so any subset of the trees may exist.
type StandingsElements struct {
	PO1     *goquery.Selection
	PO2     *goquery.Selection
	PO3     *goquery.Selection
	Regular *goquery.Selection
}

// TeamsElements holds the fragments of a teams page.
type TeamsElements struct {
	// Table lists one row per team, with the squad link in the fourth
	// column.
	Table *goquery.Selection
}

// RiderAveragesElements holds the fragments of a rider averages page.
type RiderAveragesElements struct {
	Table *goquery.Selection
}

// AttendanceElements holds the fragments of an attendance page.
type AttendanceElements struct {
	// Average is the paragraph whose trailing text carries the average
	// attendance figure.
	Average *goquery.Selection
	Table   *goquery.Selection
}

// ScorecardElements holds the fragments of a scorecard page.
type ScorecardElements struct {
	// Result contains four <h2> elements: two name/score pairs.
	Result *goquery.Selection
	// Attendance is a heading with the attendance figure embedded in
	// prose.
	Attendance *goquery.Selection
	// Scorecard is the heat table.
	Scorecard *goquery.Selection
}

// SquadElements holds the fragments of a squad page.
type SquadElements struct {
	Riders *goquery.Selection
	Guests *goquery.Selection
}

const (
	selMasterTable = "table.rgMasterTable"
	selNavbar      = "div.main-menu-offcanvas.offcanvas-body"
	selResultsLink = `a[href$="/resultat-speedway/"]`
	selTabContent  = "div.tab-content"
	selPO1         = "div#ctl00_Body_Repeater1_ctl00_RadTreeList1 table"
	selPO2         = "div#ctl00_Body_Repeater1_ctl01_RadTreeList1 table"
	selPO3         = "div#ctl00_Body_Repeater1_ctl02_RadTreeList1 table"
	selSquadRiders = "div#ctl00_Body_RadGrid1 table"
	selSquadGuests = "div#ctl00_Body_RadGrid2 table"
	selResultDiv   = "div.floatLeft"
)

func optionalSelection(sel *goquery.Selection) *goquery.Selection {
	if sel.Length() == 0 {
		return nil
	}
	return sel.First()
}

func extractEvents(doc *goquery.Document) (*EventsElements, error) {
	table := doc.Find(selMasterTable).First()
	if table.Length() == 0 {
		return nil, &MalformedPageError{Category: CategoryEvents, Fragment: "table"}
	}
	return &EventsElements{Table: table}, nil
}

func extractStandings(doc *goquery.Document, labels labelSet) (*StandingsElements, error) {
	elements := &StandingsElements{}
	if labels.has(LabelPO1) {
		elements.PO1 = optionalSelection(doc.Find(selPO1))
	}
	if labels.has(LabelPO2) {
		elements.PO2 = optionalSelection(doc.Find(selPO2))
	}
	if labels.has(LabelPO3) {
		elements.PO3 = optionalSelection(doc.Find(selPO3))
	}
	if labels.has(LabelRegular) {
		elements.Regular = optionalSelection(doc.Find(selMasterTable))
	}
	return elements, nil
}

func extractTeams(doc *goquery.Document) (*TeamsElements, error) {
	table := doc.Find(selMasterTable).First()
	if table.Length() == 0 {
		return nil, &MalformedPageError{Category: CategoryTeams, Fragment: "table"}
	}
	return &TeamsElements{Table: table}, nil
}

func extractRiderAverages(doc *goquery.Document) (*RiderAveragesElements, error) {
	table := doc.Find(selMasterTable).First()
	if table.Length() == 0 {
		return nil, &MalformedPageError{Category: CategoryRiderAverages, Fragment: "table"}
	}
	return &RiderAveragesElements{Table: table}, nil
}

func extractAttendance(doc *goquery.Document, labels labelSet) (*AttendanceElements, error) {
	elements := &AttendanceElements{}
	if labels.has(LabelAverage) {
		elements.Average = optionalSelection(doc.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
			return p.ChildrenFiltered("b").Length() > 0
		}))
	}
	if labels.has(LabelTable) {
		elements.Table = optionalSelection(doc.Find(selMasterTable))
	}
	return elements, nil
}

func extractScorecard(doc *goquery.Document, labels labelSet) (*ScorecardElements, error) {
	elements := &ScorecardElements{}
	if labels.has(LabelResult) {
		elements.Result = optionalSelection(doc.Find(selResultDiv))
	}
	if labels.has(LabelAttendance) {
		elements.Attendance = optionalSelection(doc.Find("h3"))
	}
	if labels.has(LabelScorecard) {
		elements.Scorecard = optionalSelection(doc.Find(selMasterTable))
	}
	return elements, nil
}

func extractSquad(doc *goquery.Document, labels labelSet) (*SquadElements, error) {
	elements := &SquadElements{}
	if labels.has(LabelRiders) {
		elements.Riders = optionalSelection(doc.Find(selSquadRiders))
	}
	if labels.has(LabelGuests) {
		elements.Guests = optionalSelection(doc.Find(selSquadGuests))
	}
	return elements, nil
}

// resultsHubURLs extracts the five tab panel URLs from a season's results
// hub page, in tab order. Panels carry the target in either a src or an
// href attribute.
func resultsHubURLs(doc *goquery.Document, dataURL string) (map[Category]string, error) {
	tabContent := doc.Find(selTabContent).First()
	if tabContent.Length() == 0 {
		return nil, &MalformedPageError{Category: "results", Fragment: "tab content"}
	}

	panels := tabContent.Children().Children().Children().Children()
	if panels.Length() != len(tabCategories) {
		return nil, &MalformedPageError{
			Category: "results",
			Fragment: "tab panels",
			Err:      fmt.Errorf("expected %d tabs, found %d", len(tabCategories), panels.Length()),
		}
	}

	urls := make(map[Category]string, len(tabCategories))
	var err error
	panels.EachWithBreak(func(i int, panel *goquery.Selection) bool {
		target, ok := panel.Attr("src")
		if !ok || target == "" {
			target, _ = panel.Attr("href")
		}
		if target == "" {
			err = &MalformedPageError{Category: tabCategories[i], Fragment: "tab panel URL"}
			return false
		}
		urls[tabCategories[i]] = resolveHref(dataURL, target)
		return true
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// homeSeasonURLs extracts per-season results hub URLs for a tier from the
// home page navigation menu. Previous seasons live in an accordion with one
// entry per season; the current season is a direct link labelled
// "Resultat <tier alias>".
func homeSeasonURLs(doc *goquery.Document, tier Tier, seasons []int) (map[int]string, error) {
	aliases := tierAliases[tier]

	navbar := doc.Find(selNavbar).First()
	if navbar.Length() == 0 {
		return nil, &MalformedPageError{Category: "home", Fragment: "navigation menu"}
	}

	anchor := navbar.Find(selResultsLink).First()
	if anchor.Length() == 0 {
		return nil, &MalformedPageError{Category: "home", Fragment: "results accordion"}
	}
	results := anchor.Parent().Parent().Parent().ChildrenFiltered("div").ChildrenFiltered("div").First()
	if results.Length() == 0 {
		return nil, &MalformedPageError{Category: "home", Fragment: "results accordion"}
	}

	previous := results.ChildrenFiltered("div").ChildrenFiltered("div").
		ChildrenFiltered("div").ChildrenFiltered("div").First()
	if previous.Length() == 0 {
		return nil, &MalformedPageError{Category: "home", Fragment: "previous results accordion"}
	}

	all := make(map[int]string)
	var entryErr error
	previous.Children().EachWithBreak(func(_ int, entry *goquery.Selection) bool {
		seasonText := strings.TrimSpace(entry.Find("div > p > button > a").First().Text())
		if seasonText == "" {
			entryErr = &MalformedPageError{Category: "home", Fragment: "season entry text"}
			return false
		}
		season, err := strconv.Atoi(seasonText)
		if err != nil {
			entryErr = &MalformedPageError{
				Category: "home",
				Fragment: "season entry text",
				Err:      fmt.Errorf("parse season %q: %w", seasonText, err),
			}
			return false
		}

		href := tierAliasHref(entry.Find("div > div > div > a"), aliases)
		if href == "" {
			entryErr = &MalformedPageError{Category: "home", Fragment: fmt.Sprintf("season %d tier link", season)}
			return false
		}
		all[season] = href
		return true
	})
	if entryErr != nil {
		return nil, entryErr
	}
	if len(all) == 0 {
		return nil, &MalformedPageError{Category: "home", Fragment: "season entries"}
	}

	known := make([]int, 0, len(all))
	for season := range all {
		known = append(known, season)
	}
	sort.Ints(known)
	first, last := known[0], known[len(known)-1]
	currentSeason := last + 1

	urls := make(map[int]string, len(seasons))
	for _, season := range seasons {
		switch {
		case season >= first && season <= last:
			urls[season] = all[season]
		case season == currentSeason:
			// The current season is a direct "Resultat <alias>" link
			// rather than an accordion entry.
			labels := make([]string, len(aliases))
			for i, alias := range aliases {
				labels[i] = "Resultat " + alias
			}
			href := tierAliasHref(results.ChildrenFiltered("a"), labels)
			if href == "" {
				return nil, &CoordinatesError{Tier: tier, Season: season, Reason: "no current season results link"}
			}
			urls[season] = href
		default:
			return nil, &CoordinatesError{
				Tier:   tier,
				Season: season,
				Reason: fmt.Sprintf("available seasons are %d to %d", first, currentSeason),
			}
		}
	}
	return urls, nil
}

// tierAliasHref returns the href of the first anchor whose text matches one
// of the tier aliases. A nil alias list accepts any anchor.
func tierAliasHref(anchors *goquery.Selection, aliases []string) string {
	var href string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if aliases != nil {
			text := strings.TrimSpace(a.Text())
			ok := false
			for _, alias := range aliases {
				if text == alias {
					ok = true
					break
				}
			}
			if !ok {
				return true
			}
		}
		if h, ok := a.Attr("href"); ok && strings.TrimSpace(h) != "" {
			href = strings.TrimSpace(h)
			return false
		}
		return true
	})
	return href
}

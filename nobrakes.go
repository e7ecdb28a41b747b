// Package nobrakes scrapes structured speedway statistics from the
// server-rendered SVEMO results pages. A Scraper is launched once for a
// fixed set of coordinates (tier, seasons, language) and then serves any
// number of concurrent page fetches; HTTP engines plug in behind the
// Transport interface and HTML parsing behind DocumentCreator.
package nobrakes

import "fmt"

// Tier identifies a league tier on the source site.
type Tier int

const (
	// TierElite is Bauhausligan (formerly Elitserien).
	TierElite Tier = 1
	// TierAllsvenskan is the second tier.
	TierAllsvenskan Tier = 2
)

var tierAliases = map[Tier][]string{
	TierElite:       {"Bauhausligan", "Elitserien"},
	TierAllsvenskan: {"Allsvenskan"},
}

// Language selects the locale the source site renders pages in. It also
// governs how numeric text is parsed.
type Language string

const (
	LanguageSwedish Language = "sv-se"
	LanguageEnglish Language = "en-us"
)

// Category names one of the seven logical page kinds.
type Category string

const (
	CategoryEvents        Category = "events"
	CategoryStandings     Category = "standings"
	CategoryTeams         Category = "teams"
	CategoryRiderAverages Category = "rider_averages"
	CategoryAttendance    Category = "attendance"
	CategoryScorecard     Category = "scorecard"
	CategorySquad         Category = "squad"
)

// tabCategories are the five pages reachable from a results hub, in tab
// order.
var tabCategories = [5]Category{
	CategoryEvents,
	CategoryStandings,
	CategoryTeams,
	CategoryRiderAverages,
	CategoryAttendance,
}

// Label names a fragment role within a page category. Page methods that
// accept labels extract only the requested fragments; the rest stay
// absent in the element bag.
type Label string

const (
	LabelAverage    Label = "average"
	LabelTable      Label = "table"
	LabelPO1        Label = "po1"
	LabelPO2        Label = "po2"
	LabelPO3        Label = "po3"
	LabelRegular    Label = "regular"
	LabelResult     Label = "result"
	LabelAttendance Label = "attendance"
	LabelScorecard  Label = "scorecard"
	LabelRiders     Label = "riders"
	LabelGuests     Label = "guests"
)

var categoryLabels = map[Category][]Label{
	CategoryStandings:  {LabelPO1, LabelPO2, LabelPO3, LabelRegular},
	CategoryAttendance: {LabelAverage, LabelTable},
	CategoryScorecard:  {LabelResult, LabelAttendance, LabelScorecard},
	CategorySquad:      {LabelRiders, LabelGuests},
}

type labelSet map[Label]struct{}

func newLabelSet(category Category, labels []Label) (labelSet, error) {
	allowed := categoryLabels[category]
	if len(labels) == 0 {
		labels = allowed
	}

	set := make(labelSet, len(labels))
	for _, l := range labels {
		ok := false
		for _, a := range allowed {
			if l == a {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("nobrakes: label %q is not valid for %s pages", l, category)
		}
		set[l] = struct{}{}
	}
	return set, nil
}

func (s labelSet) has(l Label) bool {
	_, ok := s[l]
	return ok
}

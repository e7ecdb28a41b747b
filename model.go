package nobrakes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/language"
)

// Typed page models. Constructors are pure: they read the element bags
// without mutating them, so transforming the same bag twice yields equal
// models. Numeric cells are parsed according to the session language.

// Field is a value that distinguishes absent from present. A present
// slice may still be empty; the two states are not the same thing.
type Field[T any] struct {
	value   T
	present bool
}

// FieldOf returns a present Field holding v.
func FieldOf[T any](v T) Field[T] {
	return Field[T]{value: v, present: true}
}

// Get returns the value and whether it is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.present
}

// Present reports whether the field holds a value.
func (f Field[T]) Present() bool {
	return f.present
}

// Value returns the value, or the zero value when absent.
func (f Field[T]) Value() T {
	return f.value
}

var localeTags = map[Language]language.Tag{
	LanguageSwedish: language.MustParse("sv-SE"),
	LanguageEnglish: language.MustParse("en-US"),
}

// Tag returns the BCP 47 tag for l.
func (l Language) Tag() language.Tag {
	return localeTags[l]
}

type numberFormat struct {
	decimal  rune
	grouping string
}

var numberFormats = map[Language]numberFormat{
	// The site renders Swedish numbers with comma decimals and space,
	// non-breaking space or dot grouping.
	LanguageSwedish: {decimal: ',', grouping: "  ."},
	LanguageEnglish: {decimal: '.', grouping: ","},
}

func stripGrouping(s string, format numberFormat) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(format.grouping, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func parseLocalizedInt(s string, lang Language) (int, error) {
	format, ok := numberFormats[lang]
	if !ok {
		return 0, fmt.Errorf("unknown language %q", lang)
	}
	return strconv.Atoi(stripGrouping(s, format))
}

func parseLocalizedFloat(s string, lang Language) (float64, error) {
	format, ok := numberFormats[lang]
	if !ok {
		return 0, fmt.Errorf("unknown language %q", lang)
	}
	cleaned := stripGrouping(s, format)
	if format.decimal != '.' {
		cleaned = strings.ReplaceAll(cleaned, string(format.decimal), ".")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// dataRows returns the <tbody> rows of table, or an error naming the
// fragment when the table has no body.
func dataRows(table *goquery.Selection, category Category, fragment string) (*goquery.Selection, error) {
	rows, ok := tableBodyRows(table)
	if !ok {
		return nil, &MalformedPageError{Category: category, Fragment: fragment, Err: fmt.Errorf("missing table body")}
	}
	return rows, nil
}

// EventRow is one row of the events table. The URL fields are empty when
// the row carries no corresponding link.
type EventRow struct {
	Date        string
	Name        string
	ResultURL   string
	HeatDataURL string
}

// Events is the typed model of an events page.
type Events struct {
	Table Field[[]EventRow]
}

// EventsFromElements transforms an events element bag. dataURL resolves
// relative link targets; pass the scraper's configured data URL.
func EventsFromElements(elements *EventsElements, dataURL string) (*Events, error) {
	model := &Events{}
	if elements == nil || elements.Table == nil {
		return model, nil
	}

	rows, err := dataRows(elements.Table, CategoryEvents, "table")
	if err != nil {
		return nil, err
	}

	out := []EventRow{}
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() < 4 {
			err = &MalformedPageError{
				Category: CategoryEvents,
				Fragment: "table",
				Err:      fmt.Errorf("expected 4 columns, got %d", cells.Length()),
			}
			return false
		}
		out = append(out, EventRow{
			Date:        firstStrippedText(cells.Eq(0)),
			Name:        firstStrippedText(cells.Eq(1)),
			ResultURL:   resolveHref(dataURL, cellHref(cells.Eq(2))),
			HeatDataURL: resolveHref(dataURL, cellHref(cells.Eq(3))),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	model.Table = FieldOf(out)
	return model, nil
}

// StandingsRow is one row of the regular season table.
type StandingsRow struct {
	Rank    int
	Team    string
	Matches int
	Wins    int
	Ties    int
	Losses  int
	Points  int
}

// PlayoffRow is one event of a flattened playoff tree.
type PlayoffRow struct {
	Round     string
	Date      string
	HomeTeam  string
	HomeScore int
	AwayTeam  string
	AwayScore int
}

// Standings is the typed model of a standings page.
type Standings struct {
	PO1     Field[[]PlayoffRow]
	PO2     Field[[]PlayoffRow]
	PO3     Field[[]PlayoffRow]
	Regular Field[[]StandingsRow]
}

var (
	homeTeamParenRe = regexp.MustCompile(` \(H[^)]*\)$`)
	isoDateRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// StandingsFromElements transforms a standings element bag.
func StandingsFromElements(elements *StandingsElements, lang Language) (*Standings, error) {
	model := &Standings{}
	if elements == nil {
		return model, nil
	}

	trees := []struct {
		label Label
		sel   *goquery.Selection
		field *Field[[]PlayoffRow]
	}{
		{LabelPO1, elements.PO1, &model.PO1},
		{LabelPO2, elements.PO2, &model.PO2},
		{LabelPO3, elements.PO3, &model.PO3},
	}
	for _, tree := range trees {
		if tree.sel == nil {
			continue
		}
		rows, err := flattenPlayoffTree(tree.sel, lang)
		if err != nil {
			return nil, &MalformedPageError{Category: CategoryStandings, Fragment: string(tree.label), Err: err}
		}
		*tree.field = FieldOf(rows)
	}

	if elements.Regular != nil {
		rows, err := regularStandingsRows(elements.Regular, lang)
		if err != nil {
			return nil, err
		}
		model.Regular = FieldOf(rows)
	}
	return model, nil
}

// flattenPlayoffTree turns a playoff tree into one record per event. The
// tree's structure is conveyed by nesting, so the walk is positional: each
// event contributes a date followed by home name, home score, away name
// and away score, and the fragment preceding the first date of a group
// names the round.
func flattenPlayoffTree(tree *goquery.Selection, lang Language) ([]PlayoffRow, error) {
	fragments := strippedTextFragments(tree)
	for i, fragment := range fragments {
		fragments[i] = homeTeamParenRe.ReplaceAllString(fragment, "")
	}

	var datePositions []int
	for i, fragment := range fragments {
		if isoDateRe.MatchString(fragment) {
			datePositions = append(datePositions, i)
		}
	}
	if len(datePositions) == 0 {
		return nil, fmt.Errorf("no event dates found")
	}
	if datePositions[0] == 0 {
		return nil, fmt.Errorf("first event has no round heading")
	}

	// An event spans five fragments: date, home team, home score, away
	// team, away score.
	const eventSpan = 5

	round := fragments[datePositions[0]-1]
	rows := make([]PlayoffRow, 0, len(datePositions))
	for i, pos := range datePositions {
		if pos+eventSpan > len(fragments) {
			return nil, fmt.Errorf("truncated event at fragment %d", pos)
		}
		homeScore, err := parseLocalizedInt(fragments[pos+2], lang)
		if err != nil {
			return nil, fmt.Errorf("home score %q: %w", fragments[pos+2], err)
		}
		awayScore, err := parseLocalizedInt(fragments[pos+4], lang)
		if err != nil {
			return nil, fmt.Errorf("away score %q: %w", fragments[pos+4], err)
		}
		rows = append(rows, PlayoffRow{
			Round:     round,
			Date:      fragments[pos],
			HomeTeam:  fragments[pos+1],
			HomeScore: homeScore,
			AwayTeam:  fragments[pos+3],
			AwayScore: awayScore,
		})

		if i+1 < len(datePositions) && datePositions[i+1]-pos > eventSpan {
			round = fragments[datePositions[i+1]-1]
		}
	}
	return rows, nil
}

func regularStandingsRows(table *goquery.Selection, lang Language) ([]StandingsRow, error) {
	rows, err := dataRows(table, CategoryStandings, string(LabelRegular))
	if err != nil {
		return nil, err
	}

	out := []StandingsRow{}
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() < 7 {
			err = &MalformedPageError{
				Category: CategoryStandings,
				Fragment: string(LabelRegular),
				Err:      fmt.Errorf("expected 7 columns, got %d", cells.Length()),
			}
			return false
		}

		var parsed StandingsRow
		parsed.Team = normalizeNBSP(firstStrippedText(cells.Eq(1)))
		ints := []struct {
			col  int
			dest *int
		}{
			{0, &parsed.Rank},
			{2, &parsed.Matches},
			{3, &parsed.Wins},
			{4, &parsed.Ties},
			{5, &parsed.Losses},
			{6, &parsed.Points},
		}
		for _, cell := range ints {
			text := firstStrippedText(cells.Eq(cell.col))
			n, parseErr := parseLocalizedInt(text, lang)
			if parseErr != nil {
				err = &MalformedPageError{
					Category: CategoryStandings,
					Fragment: string(LabelRegular),
					Err:      fmt.Errorf("column %d value %q: %w", cell.col+1, text, parseErr),
				}
				return false
			}
			*cell.dest = n
		}
		out = append(out, parsed)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TeamRow is one row of the teams table.
type TeamRow struct {
	Name     string
	Club     string
	City     string
	SquadURL string
}

// Teams is the typed model of a teams page.
type Teams struct {
	Table Field[[]TeamRow]
}

// TeamsFromElements transforms a teams element bag.
func TeamsFromElements(elements *TeamsElements, dataURL string) (*Teams, error) {
	model := &Teams{}
	if elements == nil || elements.Table == nil {
		return model, nil
	}

	rows, err := dataRows(elements.Table, CategoryTeams, "table")
	if err != nil {
		return nil, err
	}

	out := []TeamRow{}
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() < 4 {
			err = &MalformedPageError{
				Category: CategoryTeams,
				Fragment: "table",
				Err:      fmt.Errorf("expected 4 columns, got %d", cells.Length()),
			}
			return false
		}
		out = append(out, TeamRow{
			Name:     normalizeNBSP(firstStrippedText(cells.Eq(0))),
			Club:     normalizeNBSP(firstStrippedText(cells.Eq(1))),
			City:     normalizeNBSP(firstStrippedText(cells.Eq(2))),
			SquadURL: resolveHref(dataURL, cellHref(cells.Eq(3))),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	model.Table = FieldOf(out)
	return model, nil
}

// AverageRow is one row of the rider averages table.
type AverageRow struct {
	Rank    int
	Rider   string
	Team    string
	Matches int
	Heats   int
	Points  float64
	Average float64
}

// RiderAverages is the typed model of a rider averages page.
type RiderAverages struct {
	Table Field[[]AverageRow]
}

// RiderAveragesFromElements transforms a rider averages element bag.
func RiderAveragesFromElements(elements *RiderAveragesElements, lang Language) (*RiderAverages, error) {
	model := &RiderAverages{}
	if elements == nil || elements.Table == nil {
		return model, nil
	}

	rows, err := dataRows(elements.Table, CategoryRiderAverages, "table")
	if err != nil {
		return nil, err
	}

	out := []AverageRow{}
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() < 7 {
			err = &MalformedPageError{
				Category: CategoryRiderAverages,
				Fragment: "table",
				Err:      fmt.Errorf("expected 7 columns, got %d", cells.Length()),
			}
			return false
		}

		var parsed AverageRow
		var parseErr error
		fail := func(col int, text string) bool {
			err = &MalformedPageError{
				Category: CategoryRiderAverages,
				Fragment: "table",
				Err:      fmt.Errorf("column %d value %q: %w", col+1, text, parseErr),
			}
			return false
		}

		text := firstStrippedText(cells.Eq(0))
		if parsed.Rank, parseErr = parseLocalizedInt(text, lang); parseErr != nil {
			return fail(0, text)
		}
		parsed.Rider = normalizeNBSP(firstStrippedText(cells.Eq(1)))
		parsed.Team = normalizeNBSP(firstStrippedText(cells.Eq(2)))
		text = firstStrippedText(cells.Eq(3))
		if parsed.Matches, parseErr = parseLocalizedInt(text, lang); parseErr != nil {
			return fail(3, text)
		}
		text = firstStrippedText(cells.Eq(4))
		if parsed.Heats, parseErr = parseLocalizedInt(text, lang); parseErr != nil {
			return fail(4, text)
		}
		text = firstStrippedText(cells.Eq(5))
		if parsed.Points, parseErr = parseLocalizedFloat(text, lang); parseErr != nil {
			return fail(5, text)
		}
		text = firstStrippedText(cells.Eq(6))
		if parsed.Average, parseErr = parseLocalizedFloat(text, lang); parseErr != nil {
			return fail(6, text)
		}

		out = append(out, parsed)
		return true
	})
	if err != nil {
		return nil, err
	}
	model.Table = FieldOf(out)
	return model, nil
}

// AttendanceRow is one row of the attendance table.
type AttendanceRow struct {
	Date   string
	Event  string
	Figure int
}

// Attendance is the typed model of an attendance page.
type Attendance struct {
	Average Field[int]
	Table   Field[[]AttendanceRow]
}

// AttendanceFromElements transforms an attendance element bag. Average
// and Table are independently optional: either can be present without
// the other.
func AttendanceFromElements(elements *AttendanceElements, lang Language) (*Attendance, error) {
	model := &Attendance{}
	if elements == nil {
		return model, nil
	}

	if elements.Average != nil {
		text := averageTailText(elements.Average)
		if text == "" {
			return nil, &MalformedPageError{Category: CategoryAttendance, Fragment: string(LabelAverage)}
		}
		figure, err := parseLocalizedInt(text, lang)
		if err != nil {
			return nil, &MalformedPageError{
				Category: CategoryAttendance,
				Fragment: string(LabelAverage),
				Err:      fmt.Errorf("value %q: %w", text, err),
			}
		}
		model.Average = FieldOf(figure)
	}

	if elements.Table != nil {
		rows, err := dataRows(elements.Table, CategoryAttendance, string(LabelTable))
		if err != nil {
			return nil, err
		}
		out := []AttendanceRow{}
		rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := rowCells(row)
			if cells.Length() < 3 {
				err = &MalformedPageError{
					Category: CategoryAttendance,
					Fragment: string(LabelTable),
					Err:      fmt.Errorf("expected 3 columns, got %d", cells.Length()),
				}
				return false
			}
			text := firstStrippedText(cells.Eq(2))
			figure, parseErr := parseLocalizedInt(text, lang)
			if parseErr != nil {
				err = &MalformedPageError{
					Category: CategoryAttendance,
					Fragment: string(LabelTable),
					Err:      fmt.Errorf("figure %q: %w", text, parseErr),
				}
				return false
			}
			out = append(out, AttendanceRow{
				Date:   firstStrippedText(cells.Eq(0)),
				Event:  normalizeNBSP(firstStrippedText(cells.Eq(1))),
				Figure: figure,
			})
			return true
		})
		if err != nil {
			return nil, err
		}
		model.Table = FieldOf(out)
	}
	return model, nil
}

// averageTailText returns the text that follows the <b> label inside the
// average paragraph.
func averageTailText(p *goquery.Selection) string {
	if p.Nodes == nil || p.ChildrenFiltered("b").Length() == 0 {
		return ""
	}
	var tail strings.Builder
	seenLabel := false
	for node := p.Nodes[0].FirstChild; node != nil; node = node.NextSibling {
		switch {
		case node.Type == html.ElementNode && node.Data == "b":
			seenLabel = true
		case node.Type == html.TextNode && seenLabel:
			tail.WriteString(node.Data)
		}
	}
	return strings.TrimSpace(tail.String())
}

// TeamScore pairs a team name with its final score.
type TeamScore struct {
	Name   string
	Points int
}

// Scorecard is the typed model of a scorecard page. Heat cells holding the
// nested rider grid are normalized to "color/result/gate".
type Scorecard struct {
	Result     Field[[2]TeamScore]
	Attendance Field[int]
	Heats      Field[[][]string]
}

var figureRe = regexp.MustCompile(`\d(?:[\d .,\x{00a0}]*\d)?`)

// ScorecardFromElements transforms a scorecard element bag.
func ScorecardFromElements(elements *ScorecardElements, lang Language) (*Scorecard, error) {
	model := &Scorecard{}
	if elements == nil {
		return model, nil
	}

	if elements.Result != nil {
		result, err := scorecardResult(elements.Result, lang)
		if err != nil {
			return nil, &MalformedPageError{Category: CategoryScorecard, Fragment: string(LabelResult), Err: err}
		}
		model.Result = FieldOf(result)
	}

	if elements.Attendance != nil {
		match := figureRe.FindString(elements.Attendance.Text())
		if match == "" {
			return nil, &MalformedPageError{Category: CategoryScorecard, Fragment: string(LabelAttendance)}
		}
		figure, err := parseLocalizedInt(match, lang)
		if err != nil {
			return nil, &MalformedPageError{
				Category: CategoryScorecard,
				Fragment: string(LabelAttendance),
				Err:      fmt.Errorf("value %q: %w", match, err),
			}
		}
		model.Attendance = FieldOf(figure)
	}

	if elements.Scorecard != nil {
		heats, err := scorecardHeats(elements.Scorecard)
		if err != nil {
			return nil, &MalformedPageError{Category: CategoryScorecard, Fragment: string(LabelScorecard), Err: err}
		}
		model.Heats = FieldOf(heats)
	}
	return model, nil
}

// scorecardResult extracts the two name/score pairs from the result div.
// The order of the teams follows the page language: Swedish pages list
// the home team first, English pages the away team.
func scorecardResult(div *goquery.Selection, lang Language) ([2]TeamScore, error) {
	var result [2]TeamScore

	headings := div.Find("h2")
	if headings.Length() != 4 {
		return result, fmt.Errorf("expected 4 headings, got %d", headings.Length())
	}

	texts := make([]string, 4)
	for i := range texts {
		texts[i] = firstStrippedText(headings.Eq(i))
		if texts[i] == "" {
			return result, fmt.Errorf("heading %d is empty", i+1)
		}
	}

	for i := 0; i < 2; i++ {
		points, err := parseLocalizedInt(texts[i*2+1], lang)
		if err != nil {
			return result, fmt.Errorf("score %q: %w", texts[i*2+1], err)
		}
		result[i] = TeamScore{Name: normalizeNBSP(texts[i*2]), Points: points}
	}
	return result, nil
}

// scorecardHeats extracts the heat table as text records. Rider cells
// embed a nested grid whose first row holds helmet color, result and
// gate; the color falls back to the second row when the first holds a
// non-breaking space. The table is cloned first so the element bag stays
// untouched.
func scorecardHeats(table *goquery.Selection) ([][]string, error) {
	clone := table.Clone()

	var normErr error
	clone.Find(`tr[class*="Driver"] td`).EachWithBreak(func(_ int, td *goquery.Selection) bool {
		grid := td.Find("table.DriverSchema").First()
		if grid.Length() == 0 {
			return true
		}

		divs := grid.Find("tr").First().Find("div")
		if divs.Length() < 3 {
			normErr = fmt.Errorf("rider cell grid has %d fields, expected 3", divs.Length())
			return false
		}

		color := strings.TrimSpace(divs.Eq(0).Text())
		if color == "" {
			fallback := grid.Find("tr").Eq(1).Find("div").First()
			color = strings.TrimSpace(fallback.Text())
		}

		td.SetText(strings.Join([]string{
			color,
			strings.TrimSpace(divs.Eq(1).Text()),
			strings.TrimSpace(divs.Eq(2).Text()),
		}, "/"))
		return true
	})
	if normErr != nil {
		return nil, normErr
	}

	rows, ok := tableBodyRows(clone)
	if !ok {
		return nil, fmt.Errorf("missing table body")
	}

	records := [][]string{}
	rows.Each(func(_ int, row *goquery.Selection) {
		var record []string
		row.Children().Each(func(_ int, cell *goquery.Selection) {
			record = append(record, normalizeNBSP(firstStrippedText(cell)))
		})
		records = append(records, record)
	})
	return records, nil
}

// RiderRow is one row of a squad riders or guests table.
type RiderRow struct {
	Name        string
	Born        string
	Nationality string
}

// Squad is the typed model of a squad page. Guests pages often carry the
// empty-grid marker; that yields a present but empty slice, distinct
// from the fragment being absent.
type Squad struct {
	Riders Field[[]RiderRow]
	Guests Field[[]RiderRow]
}

// SquadFromElements transforms a squad element bag.
func SquadFromElements(elements *SquadElements) (*Squad, error) {
	model := &Squad{}
	if elements == nil {
		return model, nil
	}

	if elements.Riders != nil {
		rows, err := squadRiderRows(elements.Riders)
		if err != nil {
			return nil, &MalformedPageError{Category: CategorySquad, Fragment: string(LabelRiders), Err: err}
		}
		model.Riders = FieldOf(rows)
	}
	if elements.Guests != nil {
		rows, err := squadRiderRows(elements.Guests)
		if err != nil {
			return nil, &MalformedPageError{Category: CategorySquad, Fragment: string(LabelGuests), Err: err}
		}
		model.Guests = FieldOf(rows)
	}
	return model, nil
}

func squadRiderRows(table *goquery.Selection) ([]RiderRow, error) {
	out := []RiderRow{}
	if hasNoRecordsMarker(table) {
		return out, nil
	}

	rows, ok := tableBodyRows(table)
	if !ok {
		return nil, fmt.Errorf("missing table body")
	}

	var err error
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := rowCells(row)
		if cells.Length() < 3 {
			err = fmt.Errorf("expected 3 columns, got %d", cells.Length())
			return false
		}
		out = append(out, RiderRow{
			Name:        normalizeNBSP(firstStrippedText(cells.Eq(0))),
			Born:        firstStrippedText(cells.Eq(1)),
			Nationality: firstStrippedText(cells.Eq(2)),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

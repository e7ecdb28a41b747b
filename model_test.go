package nobrakes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	t.Run("Zero value is absent", func(t *testing.T) {
		var f Field[int]
		assert.False(t, f.Present(), "zero Field should be absent")
		assert.Equal(t, 0, f.Value(), "absent Field should yield the zero value")

		_, ok := f.Get()
		assert.False(t, ok)
	})

	t.Run("Present empty slice is not absent", func(t *testing.T) {
		f := FieldOf([]RiderRow{})
		v, ok := f.Get()
		require.True(t, ok, "an empty result set is still present")
		assert.Empty(t, v)
	})
}

func TestParseLocalizedNumbers(t *testing.T) {
	t.Run("Swedish grouping and decimals", func(t *testing.T) {
		n, err := parseLocalizedInt("2 448", LanguageSwedish)
		require.NoError(t, err)
		assert.Equal(t, 2448, n)

		n, err = parseLocalizedInt("12 345", LanguageSwedish)
		require.NoError(t, err)
		assert.Equal(t, 12345, n)

		x, err := parseLocalizedFloat("1 234,5", LanguageSwedish)
		require.NoError(t, err)
		assert.Equal(t, 1234.5, x)
	})

	t.Run("English grouping and decimals", func(t *testing.T) {
		n, err := parseLocalizedInt("2,448", LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, 2448, n)

		x, err := parseLocalizedFloat("1,234.5", LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, 1234.5, x)
	})

	t.Run("Garbage fails", func(t *testing.T) {
		_, err := parseLocalizedInt("n/a", LanguageSwedish)
		assert.Error(t, err)
	})
}

func TestLanguageTag(t *testing.T) {
	assert.Equal(t, "sv-SE", LanguageSwedish.Tag().String())
	assert.Equal(t, "en-US", LanguageEnglish.Tag().String())
}

const eventsTableHTML = `
<table class="rgMasterTable">
  <thead><tr><th>Datum</th><th>Match</th><th></th><th></th></tr></thead>
  <tbody>
    <tr><td>2023-05-02</td><td>Lejonen - Smederna</td>
        <td><a href="/ta/Scorecard.aspx?event=1">Matchresultat</a></td><td></td></tr>
    <tr><td>2023-09-01</td><td>Lejonen - Dackarna</td><td></td><td></td></tr>
  </tbody>
</table>`

func TestEventsFromElements(t *testing.T) {
	t.Run("Successfully transform rows", func(t *testing.T) {
		doc := parseFragment(t, eventsTableHTML)
		elements := &EventsElements{Table: doc.Find("table").First()}

		model, err := EventsFromElements(elements, "https://ta.svemo.se")
		require.NoError(t, err)

		rows, ok := model.Table.Get()
		require.True(t, ok)
		require.Len(t, rows, 2)
		assert.Equal(t, EventRow{
			Date:      "2023-05-02",
			Name:      "Lejonen - Smederna",
			ResultURL: "https://ta.svemo.se/ta/Scorecard.aspx?event=1",
		}, rows[0])
		assert.Equal(t, "", rows[1].ResultURL, "a row without a link should carry an empty URL")
	})

	t.Run("Transform is repeatable", func(t *testing.T) {
		doc := parseFragment(t, eventsTableHTML)
		elements := &EventsElements{Table: doc.Find("table").First()}

		first, err := EventsFromElements(elements, "https://ta.svemo.se")
		require.NoError(t, err)
		second, err := EventsFromElements(elements, "https://ta.svemo.se")
		require.NoError(t, err)

		assert.Equal(t, first, second, "transforming the same bag twice should be identical")
	})

	t.Run("Absent table stays absent", func(t *testing.T) {
		model, err := EventsFromElements(&EventsElements{}, "https://ta.svemo.se")
		require.NoError(t, err)
		assert.False(t, model.Table.Present())
	})

	t.Run("Fail on short rows", func(t *testing.T) {
		doc := parseFragment(t, `<table><tbody><tr><td>2023-05-02</td></tr></tbody></table>`)
		_, err := EventsFromElements(&EventsElements{Table: doc.Find("table").First()}, "")

		var merr *MalformedPageError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, CategoryEvents, merr.Category)
	})
}

const playoffTreeHTML = `
<table>
  <tr><td>Semifinal</td></tr>
  <tr><td>Semifinal 1</td></tr>
  <tr><td>2023-08-01</td></tr>
  <tr><td>Lejonen (Hemmalag)</td><td>46</td></tr>
  <tr><td>Smederna</td><td>44</td></tr>
  <tr><td>2023-08-04</td></tr>
  <tr><td>Smederna (Hemmalag)</td><td>47</td></tr>
  <tr><td>Lejonen</td><td>43</td></tr>
  <tr><td>Semifinal 2</td></tr>
  <tr><td>2023-08-02</td></tr>
  <tr><td>Dackarna (Hemmalag)</td><td>51</td></tr>
  <tr><td>Vargarna</td><td>39</td></tr>
</table>`

func TestStandingsFromElements(t *testing.T) {
	t.Run("Successfully flatten a playoff tree", func(t *testing.T) {
		doc := parseFragment(t, playoffTreeHTML)
		elements := &StandingsElements{PO1: doc.Find("table").First()}

		model, err := StandingsFromElements(elements, LanguageSwedish)
		require.NoError(t, err)

		rows, ok := model.PO1.Get()
		require.True(t, ok)
		require.Len(t, rows, 3)
		assert.Equal(t, PlayoffRow{
			Round: "Semifinal 1", Date: "2023-08-01",
			HomeTeam: "Lejonen", HomeScore: 46,
			AwayTeam: "Smederna", AwayScore: 44,
		}, rows[0], "home team parenthesis should be stripped")
		assert.Equal(t, "Semifinal 1", rows[1].Round, "round should persist within a group")
		assert.Equal(t, "Semifinal 2", rows[2].Round, "round should advance at the next group")

		assert.False(t, model.PO2.Present(), "missing trees should stay absent")
		assert.False(t, model.Regular.Present())
	})

	t.Run("Successfully transform the regular table", func(t *testing.T) {
		doc := parseFragment(t, `
<table class="rgMasterTable">
  <thead><tr><th>#</th><th>Lag</th><th>M</th><th>V</th><th>O</th><th>F</th><th>P</th></tr></thead>
  <tbody><tr><td>1</td><td>Lejonen</td><td>14</td><td>11</td><td>1</td><td>2</td><td>34</td></tr></tbody>
</table>`)
		elements := &StandingsElements{Regular: doc.Find("table").First()}

		model, err := StandingsFromElements(elements, LanguageSwedish)
		require.NoError(t, err)

		rows, ok := model.Regular.Get()
		require.True(t, ok)
		require.Len(t, rows, 1)
		assert.Equal(t, StandingsRow{Rank: 1, Team: "Lejonen", Matches: 14, Wins: 11, Ties: 1, Losses: 2, Points: 34}, rows[0])
	})

	t.Run("Fail on unparseable scores", func(t *testing.T) {
		doc := parseFragment(t, `
<table>
  <tr><td>Final</td></tr>
  <tr><td>2023-09-20</td></tr>
  <tr><td>Lejonen</td><td>abc</td></tr>
  <tr><td>Smederna</td><td>44</td></tr>
</table>`)
		elements := &StandingsElements{PO1: doc.Find("table").First()}

		_, err := StandingsFromElements(elements, LanguageSwedish)
		var merr *MalformedPageError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, CategoryStandings, merr.Category)
	})
}

func TestRiderAveragesFromElements(t *testing.T) {
	svHTML := `
<table class="rgMasterTable">
  <thead><tr><th>#</th><th>Förare</th><th>Lag</th><th>M</th><th>H</th><th>P</th><th>S</th></tr></thead>
  <tbody><tr><td>1</td><td>Fredrik` + " " + `Lindgren</td><td>Smederna</td><td>14</td><td>62</td><td>1 234,5</td><td>2,41</td></tr></tbody>
</table>`
	enHTML := `
<table class="rgMasterTable">
  <thead><tr><th>#</th><th>Rider</th><th>Team</th><th>M</th><th>H</th><th>P</th><th>S</th></tr></thead>
  <tbody><tr><td>1</td><td>Fredrik` + " " + `Lindgren</td><td>Smederna</td><td>14</td><td>62</td><td>1,234.5</td><td>2.41</td></tr></tbody>
</table>`

	t.Run("Locale only changes the text, never the values", func(t *testing.T) {
		svDoc := parseFragment(t, svHTML)
		enDoc := parseFragment(t, enHTML)

		sv, err := RiderAveragesFromElements(&RiderAveragesElements{Table: svDoc.Find("table").First()}, LanguageSwedish)
		require.NoError(t, err)
		en, err := RiderAveragesFromElements(&RiderAveragesElements{Table: enDoc.Find("table").First()}, LanguageEnglish)
		require.NoError(t, err)

		assert.Equal(t, sv, en, "both locales should decode to identical models")

		rows, _ := sv.Table.Get()
		require.Len(t, rows, 1)
		assert.Equal(t, AverageRow{
			Rank: 1, Rider: "Fredrik Lindgren", Team: "Smederna",
			Matches: 14, Heats: 62, Points: 1234.5, Average: 2.41,
		}, rows[0], "rider name should have plain spaces")
	})
}

func TestAttendanceFromElements(t *testing.T) {
	t.Run("Average present with table absent", func(t *testing.T) {
		doc := parseFragment(t, `<p><b>Genomsnitt:</b> 2`+" "+`448</p>`)
		elements := &AttendanceElements{Average: doc.Find("p").First()}

		model, err := AttendanceFromElements(elements, LanguageSwedish)
		require.NoError(t, err)

		avg, ok := model.Average.Get()
		require.True(t, ok)
		assert.Equal(t, 2448, avg)
		assert.False(t, model.Table.Present(), "absent table must stay distinguishable")
	})

	t.Run("Successfully transform the table", func(t *testing.T) {
		doc := parseFragment(t, `
<table class="rgMasterTable">
  <thead><tr><th>Datum</th><th>Match</th><th>Publik</th></tr></thead>
  <tbody><tr><td>2023-05-02</td><td>Lejonen - Smederna</td><td>2 000</td></tr></tbody>
</table>`)
		elements := &AttendanceElements{Table: doc.Find("table").First()}

		model, err := AttendanceFromElements(elements, LanguageSwedish)
		require.NoError(t, err)

		rows, ok := model.Table.Get()
		require.True(t, ok)
		assert.Equal(t, AttendanceRow{Date: "2023-05-02", Event: "Lejonen - Smederna", Figure: 2000}, rows[0])
		assert.False(t, model.Average.Present())
	})

	t.Run("Fail on non-numeric figure", func(t *testing.T) {
		doc := parseFragment(t, `<p><b>Genomsnitt:</b> okänt</p>`)
		_, err := AttendanceFromElements(&AttendanceElements{Average: doc.Find("p").First()}, LanguageSwedish)

		var merr *MalformedPageError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, CategoryAttendance, merr.Category)
	})
}

const scorecardHTML = `
<div class="floatLeft">
  <h2>Lejonen</h2><h2>46</h2>
  <h2>Smederna</h2><h2>44</h2>
</div>
<h3>Publik: 2` + " " + `448</h3>
<table class="rgMasterTable">
  <thead><tr><th>Heat</th><th>1</th><th>2</th></tr></thead>
  <tbody>
    <tr class="DriverRow"><td>1</td>
      <td><table class="DriverSchema"><tbody>
        <tr><td><div>R</div></td><td><div>3</div></td><td><div>1</div></td></tr>
        <tr><td><div></div></td></tr>
      </tbody></table></td>
      <td><table class="DriverSchema"><tbody>
        <tr><td><div>` + " " + `</div></td><td><div>2</div></td><td><div>3</div></td></tr>
        <tr><td><div>B</div></td></tr>
      </tbody></table></td>
    </tr>
  </tbody>
</table>`

func scorecardElements(t *testing.T) *ScorecardElements {
	t.Helper()
	doc := parseFragment(t, scorecardHTML)
	return &ScorecardElements{
		Result:     doc.Find("div.floatLeft").First(),
		Attendance: doc.Find("h3").First(),
		Scorecard:  doc.Find("table.rgMasterTable").First(),
	}
}

func TestScorecardFromElements(t *testing.T) {
	t.Run("Successfully transform all fragments", func(t *testing.T) {
		model, err := ScorecardFromElements(scorecardElements(t), LanguageSwedish)
		require.NoError(t, err)

		result, ok := model.Result.Get()
		require.True(t, ok)
		assert.Equal(t, [2]TeamScore{{Name: "Lejonen", Points: 46}, {Name: "Smederna", Points: 44}}, result)

		attendance, ok := model.Attendance.Get()
		require.True(t, ok)
		assert.Equal(t, 2448, attendance)

		heats, ok := model.Heats.Get()
		require.True(t, ok)
		require.Len(t, heats, 1)
		assert.Equal(t, []string{"1", "R/3/1", "B/2/3"}, heats[0],
			"rider cells should be color/result/gate, with the second color from the fallback row")
	})

	t.Run("Transform is repeatable", func(t *testing.T) {
		elements := scorecardElements(t)

		first, err := ScorecardFromElements(elements, LanguageSwedish)
		require.NoError(t, err)
		second, err := ScorecardFromElements(elements, LanguageSwedish)
		require.NoError(t, err)

		assert.Equal(t, first, second, "the element bag must not be mutated by the transform")
	})

	t.Run("Fail on wrong heading count", func(t *testing.T) {
		doc := parseFragment(t, `<div class="floatLeft"><h2>Lejonen</h2><h2>46</h2></div>`)
		_, err := ScorecardFromElements(&ScorecardElements{Result: doc.Find("div").First()}, LanguageSwedish)

		var merr *MalformedPageError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, CategoryScorecard, merr.Category)
	})
}

func TestSquadFromElements(t *testing.T) {
	t.Run("No-records marker yields present but empty", func(t *testing.T) {
		doc := parseFragment(t, `
<table id="riders"><thead><tr><th></th></tr></thead>
  <tbody><tr><td>Fredrik`+" "+`Lindgren</td><td>1985</td><td>SWE</td></tr></tbody></table>
<table id="guests"><tbody><tr class="rgNoRecords"><td>Inga poster</td></tr></tbody></table>`)
		elements := &SquadElements{
			Riders: doc.Find("table#riders").First(),
			Guests: doc.Find("table#guests").First(),
		}

		model, err := SquadFromElements(elements)
		require.NoError(t, err)

		riders, ok := model.Riders.Get()
		require.True(t, ok)
		assert.Equal(t, []RiderRow{{Name: "Fredrik Lindgren", Born: "1985", Nationality: "SWE"}}, riders)

		guests, ok := model.Guests.Get()
		require.True(t, ok, "an empty guests grid is present, not absent")
		assert.Empty(t, guests)
	})

	t.Run("Missing fragment stays absent", func(t *testing.T) {
		model, err := SquadFromElements(&SquadElements{})
		require.NoError(t, err)
		assert.False(t, model.Riders.Present())
		assert.False(t, model.Guests.Present())
	})
}

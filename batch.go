package nobrakes

import (
	"context"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// The scorecard and squad pages hang off links embedded in the events and
// teams tables. Both batch methods resolve those links, fetch every
// matching page concurrently and report a per-row outcome: one bad row
// never aborts its siblings.

var (
	scorecardLinkTexts = map[string]struct{}{"Matchresultat": {}, "Matchresults": {}}
	squadLinkTexts     = map[string]struct{}{"Visa": {}, "View": {}}
)

// ScorecardQuery narrows which event rows a Scorecards call follows.
// Nil predicates match every row. Labels defaults to every fragment.
type ScorecardQuery struct {
	Date   func(string) bool
	Name   func(string) bool
	Labels []Label
}

// ScorecardResult is the outcome for one event row. Exactly one of
// Elements and Err is set.
type ScorecardResult struct {
	Date     string
	Name     string
	Elements *ScorecardElements
	Err      error
}

// SquadQuery narrows which team rows a Squads call follows.
type SquadQuery struct {
	Team   func(string) bool
	Labels []Label
}

// SquadResult is the outcome for one team row.
type SquadResult struct {
	Team     string
	Elements *SquadElements
	Err      error
}

// Scorecards fetches the scorecard pages linked from the events table of
// season, in table row order. Rows matching the query but lacking a
// scorecard link yield a PageNotFoundError outcome; fetch failures yield
// the corresponding error. The events table is refetched unless a prior
// Events call cached it.
func (s *Scraper) Scorecards(ctx context.Context, season int, query ScorecardQuery) ([]ScorecardResult, error) {
	labels, err := newLabelSet(CategoryScorecard, query.Labels)
	if err != nil {
		return nil, err
	}

	table, ok := s.cachedTable(CategoryEvents, season)
	if !ok {
		elements, err := s.Events(ctx, season)
		if err != nil {
			return nil, err
		}
		table = elements.Table
	}

	rows, ok := tableBodyRows(table)
	if !ok {
		return nil, &MalformedPageError{Category: CategoryEvents, Fragment: "table body"}
	}

	type target struct {
		date, name, url string
	}
	var targets []target
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := rowCells(row)
		if cells.Length() < 3 {
			return
		}
		date := firstStrippedText(cells.Eq(0))
		name := firstStrippedText(cells.Eq(1))
		if query.Date != nil && !query.Date(date) {
			return
		}
		if query.Name != nil && !query.Name(name) {
			return
		}

		linkCell := cells.Eq(2)
		t := target{date: date, name: name}
		if _, ok := scorecardLinkTexts[firstStrippedText(linkCell)]; ok {
			t.url = resolveHref(s.dataURL, cellHref(linkCell))
		}
		targets = append(targets, t)
	})

	results := make([]ScorecardResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		results[i] = ScorecardResult{Date: t.date, Name: t.name}
		if t.url == "" {
			results[i].Err = &PageNotFoundError{Category: CategoryScorecard, Key: t.date + " " + t.name}
			continue
		}
		g.Go(func() error {
			doc, err := s.fetchDocument(gctx, http.MethodGet, t.url, nil)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Elements, results[i].Err = extractScorecard(doc, labels)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Fetched scorecards", LogContext{
		"season": season,
		"count":  len(results),
	})
	return results, nil
}

// Squads fetches the squad pages linked from the teams table of season,
// in table row order, keyed by team name. The teams table is refetched
// unless a prior Teams call cached it.
func (s *Scraper) Squads(ctx context.Context, season int, query SquadQuery) ([]SquadResult, error) {
	labels, err := newLabelSet(CategorySquad, query.Labels)
	if err != nil {
		return nil, err
	}

	table, ok := s.cachedTable(CategoryTeams, season)
	if !ok {
		elements, err := s.Teams(ctx, season)
		if err != nil {
			return nil, err
		}
		table = elements.Table
	}

	rows, ok := tableBodyRows(table)
	if !ok {
		return nil, &MalformedPageError{Category: CategoryTeams, Fragment: "table body"}
	}

	type target struct {
		team, url string
	}
	var targets []target
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := rowCells(row)
		if cells.Length() < 4 {
			return
		}
		team := firstStrippedText(cells.Eq(0))
		if query.Team != nil && !query.Team(team) {
			return
		}

		linkCell := cells.Eq(3)
		t := target{team: team}
		if _, ok := squadLinkTexts[firstStrippedText(linkCell)]; ok {
			t.url = resolveHref(s.dataURL, cellHref(linkCell))
		}
		targets = append(targets, t)
	})

	results := make([]SquadResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		results[i] = SquadResult{Team: t.team}
		if t.url == "" {
			results[i].Err = &PageNotFoundError{Category: CategorySquad, Key: t.team}
			continue
		}
		g.Go(func() error {
			doc, err := s.fetchDocument(gctx, http.MethodGet, t.url, nil)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Elements, results[i].Err = extractSquad(doc, labels)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Fetched squads", LogContext{
		"season": season,
		"count":  len(results),
	})
	return results, nil
}

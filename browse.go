package nobrakes

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The events table is an ASP.NET Web Forms grid: page state travels in a
// hidden __VIEWSTATE input and the next page is requested by posting the
// name of the pager button as __EVENTTARGET. browsePagedTable walks every
// page and folds all rows into a single table.

// The site emits the pagesize parameter with a stray right double quote
// that silently resets the page size to 10.
var pageSizeRe = regexp.MustCompile(`&pagesize=[125]0”?`)

func rewritePageSize(rawURL string, size int) string {
	return pageSizeRe.ReplaceAllString(rawURL, "&pagesize="+strconv.Itoa(size))
}

type pagedTable struct {
	table      *goquery.Selection
	pagination *goquery.Selection
	viewstate  string
}

func (p *pagedTable) hasPagination() bool {
	return p.pagination != nil
}

func (p *pagedTable) currentPage() string {
	return strings.TrimSpace(p.pagination.Find("a.rgCurrentPage span").First().Text())
}

func (p *pagedTable) lastVisiblePage() string {
	return strings.TrimSpace(p.pagination.Find("div.rgWrap.rgNumPart a").Last().Find("span").Text())
}

func (p *pagedTable) onLastPage() bool {
	current, last := p.currentPage(), p.lastVisiblePage()
	return current == "" || last == "" || current == last
}

func (p *pagedTable) nextPageTarget() string {
	name, _ := p.pagination.Find("input.rgPageNext").First().Attr("name")
	return name
}

func parsePagedTable(doc *goquery.Document, category Category) (*pagedTable, error) {
	input := doc.Find("input#__VIEWSTATE").First()
	if input.Length() == 0 {
		return nil, &MalformedPageError{Category: category, Fragment: "viewstate input"}
	}
	viewstate, _ := input.Attr("value")
	if viewstate == "" {
		return nil, &MalformedPageError{Category: category, Fragment: "viewstate value"}
	}

	table := doc.Find(selMasterTable).First()
	if table.Length() == 0 {
		return nil, &MalformedPageError{Category: category, Fragment: "table"}
	}

	page := &pagedTable{table: table, viewstate: viewstate}
	// Select the pager before dropping the tfoot it lives in; the
	// detached cell stays queryable.
	if pagination := table.Find("td.rgPagerCell.NextPrevAndNumeric").First(); pagination.Length() > 0 {
		page.pagination = pagination
	}
	table.ChildrenFiltered("tfoot").Remove()
	return page, nil
}

// browsePagedTable fetches a paginated grid and returns a table holding
// the rows of every page. Exceeding the page limit returns ErrPageLimit.
func (s *Scraper) browsePagedTable(ctx context.Context, rawURL string, category Category) (*goquery.Selection, error) {
	rawURL = rewritePageSize(rawURL, s.pageSize)

	doc, err := s.fetchDocument(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	first, err := parsePagedTable(doc, category)
	if err != nil {
		return nil, err
	}

	firstBody := first.table.ChildrenFiltered("tbody")
	if firstBody.Length() == 0 {
		return nil, &MalformedPageError{Category: category, Fragment: "table body"}
	}

	page := first
	for n := 1; ; n++ {
		if page != first {
			tbody := page.table.ChildrenFiltered("tbody")
			if tbody.Length() == 0 {
				return nil, &MalformedPageError{Category: category, Fragment: "table body"}
			}
			firstBody.AppendSelection(tbody.ChildrenFiltered("tr"))
		}

		if !page.hasPagination() || page.onLastPage() {
			break
		}
		if n >= s.pageLimit {
			return nil, ErrPageLimit
		}

		target := page.nextPageTarget()
		if target == "" {
			return nil, &MalformedPageError{Category: category, Fragment: "next page target"}
		}

		form := url.Values{
			"__EVENTTARGET": {target},
			"__VIEWSTATE":   {page.viewstate},
		}
		doc, err = s.fetchDocument(ctx, "POST", rawURL, form)
		if err != nil {
			return nil, err
		}
		page, err = parsePagedTable(doc, category)
		if err != nil {
			return nil, err
		}
	}

	return first.table, nil
}

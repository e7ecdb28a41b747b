package nobrakes

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewritePageSize(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "Rewrites the parameter with the stray quote",
			url:      "/ta/Events.aspx?season=2023&pagesize=10”",
			expected: "/ta/Events.aspx?season=2023&pagesize=50",
		},
		{
			name:     "Rewrites a well-formed parameter",
			url:      "/ta/Events.aspx?season=2023&pagesize=20&x=1",
			expected: "/ta/Events.aspx?season=2023&pagesize=50&x=1",
		},
		{
			name:     "Leaves URLs without the parameter alone",
			url:      "/ta/Events.aspx?season=2023",
			expected: "/ta/Events.aspx?season=2023",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, rewritePageSize(test.url, 50))
		})
	}
}

func TestParsePagedTable(t *testing.T) {
	parse := func(t *testing.T, body string) *goquery.Document {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		require.NoError(t, err)
		return doc
	}

	t.Run("Successfully parse a page with a pager", func(t *testing.T) {
		doc := parse(t, `
<input id="__VIEWSTATE" type="hidden" value="state-1"/>
<table class="rgMasterTable">
  <tfoot><tr><td class="rgPagerCell NextPrevAndNumeric">
    <input class="rgPageNext" name="ctl00$grid$next"/>
    <a class="rgCurrentPage"><span>1</span></a>
    <div class="rgWrap rgNumPart"><a><span>1</span></a><a><span>2</span></a></div>
  </td></tr></tfoot>
  <tbody><tr><td>row</td></tr></tbody>
</table>`)

		page, err := parsePagedTable(doc, CategoryEvents)
		require.NoError(t, err)

		assert.Equal(t, "state-1", page.viewstate)
		require.True(t, page.hasPagination(), "the pager should survive the tfoot removal")
		assert.Equal(t, "1", page.currentPage())
		assert.Equal(t, "2", page.lastVisiblePage())
		assert.False(t, page.onLastPage())
		assert.Equal(t, "ctl00$grid$next", page.nextPageTarget())
		assert.Zero(t, page.table.ChildrenFiltered("tfoot").Length(), "the tfoot should not pollute the row set")
	})

	t.Run("A page without a pager is the last page", func(t *testing.T) {
		doc := parse(t, `
<input id="__VIEWSTATE" type="hidden" value="state-1"/>
<table class="rgMasterTable"><tbody><tr><td>row</td></tr></tbody></table>`)

		page, err := parsePagedTable(doc, CategoryEvents)
		require.NoError(t, err)
		assert.False(t, page.hasPagination())
	})

	t.Run("Fail without a viewstate input", func(t *testing.T) {
		doc := parse(t, `<table class="rgMasterTable"><tbody></tbody></table>`)

		_, err := parsePagedTable(doc, CategoryEvents)
		var merr *MalformedPageError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "viewstate input", merr.Fragment)
	})

	t.Run("Fail without a table", func(t *testing.T) {
		doc := parse(t, `<input id="__VIEWSTATE" type="hidden" value="state-1"/>`)

		_, err := parsePagedTable(doc, CategoryEvents)
		var merr *MalformedPageError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "table", merr.Fragment)
	})
}

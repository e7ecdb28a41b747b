package nobrakes

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Utilities for pulling text and links out of the server-rendered tables.
// All text helpers strip surrounding whitespace; absent content comes back
// as the empty string rather than an error so callers decide severity.

// firstStrippedText returns the first non-empty trimmed text fragment found
// in a depth-first walk of sel, or "".
func firstStrippedText(sel *goquery.Selection) string {
	for _, node := range sel.Nodes {
		if text := firstTextNode(node); text != "" {
			return text
		}
	}
	return ""
}

func firstTextNode(node *html.Node) string {
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			return text
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if text := firstTextNode(child); text != "" {
			return text
		}
	}
	return ""
}

// strippedTextFragments returns every non-empty trimmed text fragment in
// document order. Used to flatten the playoff trees, whose structure is
// conveyed by nesting rather than rows.
func strippedTextFragments(sel *goquery.Selection) []string {
	var fragments []string
	for _, node := range sel.Nodes {
		collectTextNodes(node, &fragments)
	}
	return fragments
}

func collectTextNodes(node *html.Node, out *[]string) {
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			*out = append(*out, text)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextNodes(child, out)
	}
}

// normalizeNBSP replaces non-breaking spaces with plain spaces. The site
// pads rider names with U+00A0.
func normalizeNBSP(s string) string {
	return strings.ReplaceAll(s, " ", " ")
}

// tableBodyRows returns the <tr> rows of the table's <tbody>, and whether
// a <tbody> exists at all.
func tableBodyRows(table *goquery.Selection) (*goquery.Selection, bool) {
	tbody := table.ChildrenFiltered("tbody")
	if tbody.Length() == 0 {
		return nil, false
	}
	return tbody.ChildrenFiltered("tr"), true
}

// rowCells returns the <td> children of a table row.
func rowCells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("td")
}

// cellHref returns the href of the first anchor inside the cell, or "".
func cellHref(cell *goquery.Selection) string {
	href, _ := cell.Find("a").First().Attr("href")
	return strings.TrimSpace(href)
}

// resolveHref turns a (possibly relative) href into an absolute URL under
// base. Already-absolute hrefs pass through untouched.
func resolveHref(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(base, "/") + href
}

// hasNoRecordsMarker reports whether the table carries the marker row the
// grid control emits when a result set is empty.
func hasNoRecordsMarker(table *goquery.Selection) bool {
	return table.Find("tr.rgNoRecords").Length() > 0
}

package nobrakes

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// DocumentCreator turns a response body into a queryable document. It is
// the second capability seam next to Transport: swap it to change how
// HTML is parsed without touching the scraper.
type DocumentCreator interface {
	Parse(body []byte, contentType string) (*goquery.Document, error)
}

type defaultDocumentCreator struct{}

func (defaultDocumentCreator) Parse(body []byte, contentType string) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(r)
}

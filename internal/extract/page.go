package extract

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"coursexport/internal/config"
)

// ErrInvalidPageURL is returned when a page URL is not absolute.
var ErrInvalidPageURL = errors.New("page url must be absolute")

// Page is a parsed document together with the location it was served from.
type Page struct {
	URL       *url.URL
	Doc       *goquery.Document
	Selectors config.Selectors
}

// NewPage parses HTML from r as the document located at rawURL.
func NewPage(rawURL string, r io.Reader, sel config.Selectors) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPageURL, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}

	doc.Url = u

	return &Page{URL: u, Doc: doc, Selectors: sel}, nil
}

// NewPageFromString is NewPage over an in-memory document.
func NewPageFromString(rawURL, html string, sel config.Selectors) (*Page, error) {
	return NewPage(rawURL, strings.NewReader(html), sel)
}

// Origin returns scheme://host of the page.
func (p *Page) Origin() string {
	return p.URL.Scheme + "://" + p.URL.Host
}

// textOf returns the cleaned text of the first element matching selector within s.
func textOf(s *goquery.Selection, selector string) string {
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}

	return CleanText(found.Text())
}

// absoluteHref resolves the href of the first element matching selector against the page URL.
func (p *Page) absoluteHref(s *goquery.Selection, selector string) string {
	anchor := s.Find(selector).First()
	if anchor.Length() == 0 {
		return ""
	}

	href, ok := anchor.Attr("href")
	if !ok {
		return ""
	}

	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.URL.ResolveReference(ref).String()
}

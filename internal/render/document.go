package render

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the parsed form of one HTML page.
type Document interface {
	// Title returns the trimmed <title> text. ok is false when the page has
	// no title element or the element is blank.
	Title() (title string, ok bool)

	// Body returns the <body> element, or the whole document when there
	// is none.
	Body() *goquery.Selection

	// Anchors returns the raw href values of all <a> elements in document
	// order. Hrefs are not resolved or filtered.
	Anchors() []string
}

// ParseOption configures Parse.
type ParseOption func(*htmlDocument)

// WithDocumentURL records the URL the page was fetched from.
// Main content extraction needs it to resolve relative references.
func WithDocumentURL(u *url.URL) ParseOption {
	return func(d *htmlDocument) {
		d.url = u
		d.doc.Url = u
	}
}

// htmlDocument implements Document on top of a goquery tree.
type htmlDocument struct {
	doc *goquery.Document
	url *url.URL
}

// Parse parses raw HTML. The parser is as lenient as a browser, so
// malformed markup still yields a document.
func Parse(raw []byte, opts ...ParseOption) (Document, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	d := &htmlDocument{doc: goquery.NewDocumentFromNode(root)}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Title implements Document.
func (d *htmlDocument) Title() (string, bool) {
	sel := d.doc.Find("title").First()
	if sel.Length() == 0 {
		return "", false
	}

	title := strings.TrimSpace(sel.Text())
	return title, title != ""
}

// Body implements Document.
func (d *htmlDocument) Body() *goquery.Selection {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return d.doc.Selection
	}
	return body
}

// Anchors implements Document.
func (d *htmlDocument) Anchors() []string {
	anchors := make([]string, 0)
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			anchors = append(anchors, href)
		}
	})
	return anchors
}

// URL returns the page URL given to Parse, or nil.
func (d *htmlDocument) URL() *url.URL {
	return d.url
}

package render

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/nao1215/docmirror/internal/model"
)

// Renderer converts parsed documents to Markdown.
// A Renderer is safe for concurrent use.
type Renderer struct {
	converter   *md.Converter
	mainContent bool
	logger      *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithMainContent converts only the readable article of each page.
func WithMainContent(enabled bool) RendererOption {
	return func(r *Renderer) {
		r.mainContent = enabled
	}
}

// WithRendererLogger sets the logger used for extraction fallbacks.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer returns a Renderer that keeps links as [text](href) with
// hrefs exactly as written in the page.
func NewRenderer(opts ...RendererOption) *Renderer {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "noscript")

	r := &Renderer{
		converter: converter,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render converts doc to Markdown. The title is taken from <title> in
// both modes.
func (r *Renderer) Render(doc Document) (rendered model.RenderedDocument, err error) {
	// The converter walks arbitrary third-party markup.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrRender, p)
		}
	}()

	title, hasTitle := doc.Title()

	selection := doc.Body()
	if r.mainContent {
		if article, ok := r.extractMainContent(doc); ok {
			selection = article
		}
	}

	return model.RenderedDocument{
		Title:    title,
		HasTitle: hasTitle,
		Markdown: r.converter.Convert(selection),
	}, nil
}

// extractMainContent runs readability over the document body.
func (r *Renderer) extractMainContent(doc Document) (*goquery.Selection, bool) {
	var pageURL *url.URL
	if located, ok := doc.(interface{ URL() *url.URL }); ok {
		pageURL = located.URL()
	}
	if pageURL == nil {
		r.logger.Debug("main content extraction skipped: page url unknown")
		return nil, false
	}

	raw, err := goquery.OuterHtml(doc.Body())
	if err != nil {
		r.logger.Debug("main content extraction failed", "url", pageURL.String(), "error", err)
		return nil, false
	}

	article, err := readability.FromReader(strings.NewReader(raw), pageURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		r.logger.Debug("main content extraction failed, using full body", "url", pageURL.String(), "error", err)
		return nil, false
	}

	extracted, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, false
	}

	body := extracted.Find("body").First()
	if body.Length() == 0 {
		return extracted.Selection, true
	}
	return body, true
}

// Package pagemeta distills page-level metadata from raw HTML: title,
// excerpt, site name, and a plain-text sample. The fill pipeline uses it for
// log context and as the input to page-language detection.
package pagemeta

import (
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// PageMeta is the readability-derived summary of a page.
type PageMeta struct {
	Title       string
	Excerpt     string
	SiteName    string
	Byline      string
	TextContent string
}

// FromHTML runs readability over the raw page. Failures are reported, but
// callers treat the metadata as best-effort: a page that defeats readability
// still gets its forms filled.
func FromHTML(rawURL string, html string) (PageMeta, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return PageMeta{}, err
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return PageMeta{}, err
	}

	return PageMeta{
		Title:       article.Title,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		Byline:      article.Byline,
		TextContent: article.TextContent,
	}, nil
}

// Sample returns up to n characters of page text for language detection,
// preferring the distilled text content over the title. The cut is on rune
// boundaries so multibyte text stays valid.
func (m PageMeta) Sample(n int) string {
	text := strings.TrimSpace(m.TextContent)
	if text == "" {
		text = strings.TrimSpace(m.Title + " " + m.Excerpt)
	}
	if runes := []rune(text); len(runes) > n {
		return string(runes[:n])
	}
	return text
}

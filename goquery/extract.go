// Package goquery extracts page content and links from HTML documents using
// CSS selectors.
package goquery

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/dockb"
)

// MaxDescriptionChars bounds a description taken from the first paragraph.
const MaxDescriptionChars = 200

// noiseSelector matches elements that never carry page content.
const noiseSelector = "script, style, noscript, iframe, template, svg"

// chromeSelector matches site chrome removed from the main content.
const chromeSelector = "nav, footer, aside, header, .toc, .sidebar, .nav"

// mainSelectors are tried in order to find the main content container.
var mainSelectors = []string{"main", "article", ".content", ".docs-content", "[role=main]"}

// Ensure Extractor implements dockb.Extractor at compile time.
var _ dockb.Extractor = (*Extractor)(nil)

// Extractor parses HTML pages into dockb.ParsedContent.
type Extractor struct {
	// Isolator, when set, chooses the main content instead of mainSelectors.
	// Its failures fall back to the selectors.
	Isolator dockb.ContentIsolator

	// Converter, when set, renders the main content as Markdown.
	Converter dockb.Converter
}

// NewExtractor returns an Extractor using selector-based content detection.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses an HTML body fetched from pageURL.
func (e *Extractor) Extract(body []byte, contentType, pageURL string) (*dockb.ParsedContent, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, dockb.Errorf(dockb.EINVALID, "invalid page URL: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &dockb.ExtractionError{Kind: dockb.ExtractionParse, ContentType: dockb.MediaType(contentType), Err: errors.New("empty document")}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &dockb.ExtractionError{Kind: dockb.ExtractionParse, ContentType: dockb.MediaType(contentType), Err: err}
	}

	// Links and breadcrumbs live in the chrome, so read them before it goes.
	links := extractLinks(doc, base)
	breadcrumb := extractBreadcrumb(doc, base)
	title := extractTitle(doc, base)
	description := metaDescription(doc)

	doc.Find(noiseSelector).Remove()
	main := e.mainContent(doc)
	main.Find(chromeSelector).Remove()

	text := renderText(main)
	if description == "" {
		description = truncate(collapse(main.Find("p").First().Text()), MaxDescriptionChars)
	}

	var markdown string
	if e.Converter != nil {
		if html, err := goquery.OuterHtml(main); err == nil {
			if md, err := e.Converter.Convert(html); err == nil {
				markdown = md
			}
		}
	}

	return &dockb.ParsedContent{
		Title:       title,
		Description: description,
		Breadcrumb:  breadcrumb,
		Text:        text,
		Markdown:    markdown,
		Links:       links,
	}, nil
}

// mainContent returns the main content container of doc.
func (e *Extractor) mainContent(doc *goquery.Document) *goquery.Selection {
	if e.Isolator != nil {
		if html, err := doc.Html(); err == nil {
			if isolated, err := e.Isolator.Isolate(html); err == nil && strings.TrimSpace(isolated) != "" {
				if idoc, err := goquery.NewDocumentFromReader(strings.NewReader(isolated)); err == nil {
					idoc.Find(noiseSelector).Remove()
					return idoc.Find("body").First()
				}
			}
		}
	}

	for _, sel := range mainSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("body").First()
}

// extractTitle returns the document title, else the first h1, else the last
// path segment of the page URL.
func extractTitle(doc *goquery.Document, base *url.URL) string {
	if t := collapse(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	if t := collapse(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	segments := pathSegments(base)
	if len(segments) == 0 {
		return base.Host
	}
	return segments[len(segments)-1]
}

// metaDescription returns the content of the description meta tag.
func metaDescription(doc *goquery.Document) string {
	var desc string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := strings.ToLower(s.AttrOr("name", s.AttrOr("property", "")))
		if name == "description" || name == "og:description" {
			desc = collapse(s.AttrOr("content", ""))
		}
		return desc == ""
	})
	return desc
}

// extractBreadcrumb reads a breadcrumb trail from the page, falling back to
// the page URL path.
func extractBreadcrumb(doc *goquery.Document, base *url.URL) string {
	trail := doc.Find(".breadcrumb, .breadcrumbs").First()
	doc.Find("nav").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(s.AttrOr("aria-label", ""), "breadcrumb") {
			trail = s
			return false
		}
		return true
	})

	if trail.Length() > 0 {
		var parts []string
		items := trail.Find("li")
		if items.Length() == 0 {
			items = trail.Find("a, [aria-current=page]")
		}
		items.Each(func(_ int, s *goquery.Selection) {
			if p := collapse(s.Text()); p != "" {
				parts = append(parts, p)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " > ")
		}
	}

	var parts []string
	for _, seg := range pathSegments(base) {
		seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
		parts = append(parts, titleCase(seg))
	}
	return strings.Join(parts, " > ")
}

// extractLinks returns absolute http(s) links in document order, without
// fragments or duplicates.
func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		if u, err := url.Parse(resolved); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}

		seen[resolved] = true
		links = append(links, resolved)
	})

	return links
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or if the resolved URL
// is self-referential (same as base URL after stripping fragment).
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	baseNoFragment.RawFragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#")
}

func pathSegments(u *url.URL) []string {
	var out []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

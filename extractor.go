package dockb

import (
	"fmt"
	"mime"
	"strings"
)

// ParsedContent holds the normalized content of a page.
type ParsedContent struct {
	Title       string
	Description string
	Breadcrumb  string

	// Text is plain text with markup removed and whitespace collapsed.
	// Headings, paragraphs and list items end with a sentence break.
	Text string

	// Markdown is a best-effort markdown rendition of the main content.
	Markdown string

	// Links are absolute, fragment-free http(s) URLs in document order.
	Links []string
}

// Extractor parses a fetched body of one content type.
type Extractor interface {
	// Extract parses body retrieved from pageURL.
	// Relative links are resolved against pageURL.
	Extract(body []byte, contentType, pageURL string) (*ParsedContent, error)
}

// ContentIsolator picks the main content out of an HTML page, removing
// boilerplate such as navigation, footers and sidebars.
type ContentIsolator interface {
	// Isolate returns the main content of the page as clean HTML.
	Isolate(html string) (string, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	Convert(html string) (string, error)
}

// ExtractionErrorKind classifies an extraction failure.
type ExtractionErrorKind string

// ExtractionErrorKind values.
const (
	ExtractionUnsupportedType ExtractionErrorKind = "unsupported_type"
	ExtractionParse           ExtractionErrorKind = "parse"
)

// ExtractionError describes why content could not be extracted.
type ExtractionError struct {
	Kind        ExtractionErrorKind
	ContentType string
	Err         error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Kind == ExtractionUnsupportedType {
		return fmt.Sprintf("unsupported content type %q", e.ContentType)
	}
	return fmt.Sprintf("extract %s: %v", e.ContentType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractorMux dispatches extraction to an Extractor registered for the
// media type of the content.
type ExtractorMux struct {
	byType map[string]Extractor
}

// NewExtractorMux returns an empty mux.
func NewExtractorMux() *ExtractorMux {
	return &ExtractorMux{byType: make(map[string]Extractor)}
}

// Handle registers e for the given media types.
func (m *ExtractorMux) Handle(e Extractor, mediaTypes ...string) {
	for _, t := range mediaTypes {
		m.byType[strings.ToLower(t)] = e
	}
}

// Extract implements Extractor. Content types without a registered
// extractor yield an ExtractionError of kind ExtractionUnsupportedType.
func (m *ExtractorMux) Extract(body []byte, contentType, pageURL string) (*ParsedContent, error) {
	mediaType := MediaType(contentType)
	e, ok := m.byType[mediaType]
	if !ok {
		return nil, &ExtractionError{Kind: ExtractionUnsupportedType, ContentType: mediaType}
	}
	return e.Extract(body, contentType, pageURL)
}

// MediaType returns the lowercased media type of a Content-Type header value.
// An empty value is treated as text/html.
func MediaType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return "text/html"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

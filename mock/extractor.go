package mock

import "github.com/fwojciec/dockb"

var _ dockb.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of dockb.Extractor.
type Extractor struct {
	ExtractFn func(body []byte, contentType, pageURL string) (*dockb.ParsedContent, error)
}

func (e *Extractor) Extract(body []byte, contentType, pageURL string) (*dockb.ParsedContent, error) {
	return e.ExtractFn(body, contentType, pageURL)
}

var _ dockb.ContentIsolator = (*ContentIsolator)(nil)

// ContentIsolator is a mock implementation of dockb.ContentIsolator.
type ContentIsolator struct {
	IsolateFn func(html string) (string, error)
}

func (i *ContentIsolator) Isolate(html string) (string, error) {
	return i.IsolateFn(html)
}

var _ dockb.Converter = (*Converter)(nil)

// Converter is a mock implementation of dockb.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

// Package readability isolates the main content of a page with the
// Mozilla Readability algorithm.
package readability

import (
	"strings"

	"github.com/fwojciec/dockb"
	"github.com/go-shiori/go-readability"
)

// Ensure Isolator implements dockb.ContentIsolator at compile time.
var _ dockb.ContentIsolator = (*Isolator)(nil)

// Isolator wraps go-readability. It works best on article-like pages and
// may drop reference tables on API docs.
type Isolator struct{}

// NewIsolator creates a new Isolator.
func NewIsolator() *Isolator {
	return &Isolator{}
}

// Isolate returns the main content of rawHTML as HTML.
func (i *Isolator) Isolate(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", dockb.Errorf(dockb.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", dockb.Errorf(dockb.ENOTFOUND, "no main content found")
	}
	return article.Content, nil
}

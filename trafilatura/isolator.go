// Package trafilatura isolates the main content of a page with
// go-trafilatura, falling back to its readability and distiller modes.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/dockb"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Isolator implements dockb.ContentIsolator at compile time.
var _ dockb.ContentIsolator = (*Isolator)(nil)

// Isolator wraps go-trafilatura.
type Isolator struct {
	opts trafilatura.Options
}

// NewIsolator creates a new Isolator. Tables and links are kept since
// documentation relies on them.
func NewIsolator() *Isolator {
	return &Isolator{opts: trafilatura.Options{
		EnableFallback: true,
		IncludeLinks:   true,
	}}
}

// Isolate returns the main content of rawHTML as HTML.
func (i *Isolator) Isolate(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", dockb.Errorf(dockb.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), i.opts)
	if err != nil {
		return "", err
	}
	if result == nil || result.ContentNode == nil {
		return "", dockb.Errorf(dockb.ENOTFOUND, "no main content found")
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return "", err
	}
	return buf.String(), nil
}

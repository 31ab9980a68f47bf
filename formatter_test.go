package dockb_test

import (
	"testing"

	"github.com/fwojciec/dockb"
	"github.com/stretchr/testify/assert"
)

func TestFormatDocuments(t *testing.T) {
	t.Parallel()

	t.Run("formats single document with title", func(t *testing.T) {
		t.Parallel()

		docs := []*dockb.Document{
			{ID: "https://example.com/start", Title: "Getting Started", Text: "Welcome to the docs."},
		}

		result := dockb.FormatDocuments(docs)

		expected := "## Document: Getting Started\nSource: https://example.com/start\n\nWelcome to the docs."
		assert.Equal(t, expected, result)
	})

	t.Run("uses ID when title is empty", func(t *testing.T) {
		t.Parallel()

		docs := []*dockb.Document{
			{ID: "https://example.com/docs", Text: "Some content."},
		}

		result := dockb.FormatDocuments(docs)

		assert.Contains(t, result, "## Document: https://example.com/docs\n")
	})

	t.Run("prefers markdown over text", func(t *testing.T) {
		t.Parallel()

		docs := []*dockb.Document{
			{ID: "https://example.com/a", Title: "A", Text: "plain", Markdown: "# A\n\n**rich**"},
		}

		result := dockb.FormatDocuments(docs)

		assert.Contains(t, result, "**rich**")
		assert.NotContains(t, result, "plain")
	})

	t.Run("formats multiple documents with blank line separator", func(t *testing.T) {
		t.Parallel()

		docs := []*dockb.Document{
			{ID: "https://example.com/1", Title: "Doc One", Text: "First content."},
			{ID: "https://example.com/2", Title: "Doc Two", Text: "Second content."},
		}

		result := dockb.FormatDocuments(docs)

		expected := "## Document: Doc One\nSource: https://example.com/1\n\nFirst content.\n\n" +
			"## Document: Doc Two\nSource: https://example.com/2\n\nSecond content."
		assert.Equal(t, expected, result)
	})

	t.Run("returns empty string for empty slice", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, dockb.FormatDocuments([]*dockb.Document{}))
	})
}

func TestFormatSearchResults(t *testing.T) {
	t.Parallel()

	t.Run("numbers results and shows scores", func(t *testing.T) {
		t.Parallel()

		results := []*dockb.SearchResult{
			{DocumentID: "https://example.com/a", Title: "HTTP Actions", Score: 0.91, SemanticScore: 1, LexicalScore: 0.7},
			{DocumentID: "https://example.com/b", Score: 0.2},
		}

		out := dockb.FormatSearchResults(results)

		assert.Contains(t, out, "1. HTTP Actions  (score 0.910, semantic 1.000, lexical 0.700)")
		assert.Contains(t, out, "2. https://example.com/b")
	})

	t.Run("returns empty string for no results", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, dockb.FormatSearchResults(nil))
	})
}

package dockb

import (
	"fmt"
	"strings"
)

// FormatDocuments formats documents for display or LLM context.
// Uses title if available, falls back to the document URL.
// Markdown is preferred over plain text when present.
// Documents are separated by blank lines.
func FormatDocuments(docs []*Document) string {
	if len(docs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		header := doc.Title
		if header == "" {
			header = doc.ID
		}
		content := doc.Markdown
		if content == "" {
			content = doc.Text
		}
		parts = append(parts, "## Document: "+header+"\nSource: "+doc.ID+"\n\n"+content)
	}

	return strings.Join(parts, "\n\n")
}

// FormatSearchResults formats ranked results, one block per result.
func FormatSearchResults(results []*SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		title := r.Title
		if title == "" {
			title = r.DocumentID
		}
		fmt.Fprintf(&sb, "%d. %s  (score %.3f, semantic %.3f, lexical %.3f)\n", i+1, title, r.Score, r.SemanticScore, r.LexicalScore)
		fmt.Fprintf(&sb, "   %s\n", r.DocumentID)
		if r.Breadcrumb != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Breadcrumb)
		}
		if r.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Description)
		}
	}
	return sb.String()
}

package dockb

import (
	"context"
	"time"
)

// Default document metadata values.
const (
	DefaultCategory = "external"
	DefaultPriority = 5
)

// Document represents an indexed documentation page.
// The ID is the canonical URL of the page.
type Document struct {
	ID          string           `json:"id"`
	SourceURL   string           `json:"sourceUrl"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Breadcrumb  string           `json:"breadcrumb,omitempty"`
	Text        string           `json:"text"`
	Markdown    string           `json:"markdown,omitempty"`
	Links       []string         `json:"links,omitempty"`
	ContentHash string           `json:"contentHash"`
	Domain      string           `json:"domain"`
	Depth       int              `json:"depth"`
	Metadata    DocumentMetadata `json:"metadata"`
	CreatedAt   time.Time        `json:"createdAt"`
	IndexedAt   time.Time        `json:"indexedAt"`

	// Vector is written together with the document when set.
	Vector *Vector `json:"-"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return Errorf(EINVALID, "document ID required")
	}
	if d.ContentHash == "" {
		return Errorf(EINVALID, "document content hash required")
	}
	return d.Metadata.Validate()
}

// DocumentMetadata holds user supplied metadata attached at index time.
// Title and Description, when set, override the extracted values.
type DocumentMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	Priority    int      `json:"priority"`
}

// Validate returns an error if the metadata contains invalid fields.
func (m *DocumentMetadata) Validate() error {
	if m.Priority < 0 || m.Priority > 10 {
		return Errorf(EINVALID, "priority must be between 0 and 10, got %d", m.Priority)
	}
	return nil
}

// IsZero reports whether no metadata was supplied.
func (m DocumentMetadata) IsZero() bool {
	return m.Title == "" && m.Description == "" && m.Category == "" && len(m.Tags) == 0 && m.Priority == 0
}

// WithDefaults returns a copy of m with empty fields set to their defaults.
func (m DocumentMetadata) WithDefaults() DocumentMetadata {
	if m.Category == "" {
		m.Category = DefaultCategory
	}
	if m.Priority == 0 {
		m.Priority = DefaultPriority
	}
	return m
}

// DocumentSummary is the listing view of a document.
type DocumentSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Priority    int       `json:"priority"`
	ContentHash string    `json:"contentHash"`
	Chars       int       `json:"chars"`
	IndexedAt   time.Time `json:"indexedAt"`
}

// Summary returns the listing view of d.
func (d *Document) Summary() *DocumentSummary {
	return &DocumentSummary{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Metadata.Category,
		Tags:        d.Metadata.Tags,
		Priority:    d.Metadata.Priority,
		ContentHash: d.ContentHash,
		Chars:       len(d.Text),
		IndexedAt:   d.IndexedAt,
	}
}

// PutOutcome describes what PutDocument did.
type PutOutcome int

// PutOutcome values.
const (
	PutUnchanged PutOutcome = iota
	PutRefreshed
	PutCreated
	PutUpdated
)

// String returns a readable name for the outcome.
func (o PutOutcome) String() string {
	switch o {
	case PutRefreshed:
		return "refreshed"
	case PutCreated:
		return "created"
	case PutUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// DocumentStats summarizes the contents of a document store.
type DocumentStats struct {
	DocumentCount int
	VectorCount   int
	TotalChars    int
	LastIndexedAt time.Time
}

// DocumentService represents the document store of one knowledge base.
type DocumentService interface {
	// PutDocument stores a document together with its lexicon row and,
	// if set, its vector. The write is atomic.
	//
	// When the stored content hash equals doc.ContentHash nothing is written
	// unless force is true, in which case only the last-indexed timestamp
	// and user metadata are updated.
	PutDocument(ctx context.Context, doc *Document, force bool) (PutOutcome, error)

	// FindDocumentByID retrieves a document by ID.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByID(ctx context.Context, id string) (*Document, error)

	// FindDocuments retrieves documents matching the filter.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// ContentHash returns the stored content hash of a document.
	// Returns ENOTFOUND if document does not exist.
	ContentHash(ctx context.Context, id string) (string, error)

	// DeleteDocument permanently removes a document, its lexicon row and its vector.
	// Returns ENOTFOUND if document does not exist.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteAllDocuments removes every document and returns how many were removed.
	DeleteAllDocuments(ctx context.Context) (int, error)

	// Stats returns aggregate counts for the store.
	Stats(ctx context.Context) (*DocumentStats, error)
}

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	ID       *string  `json:"id"`
	IDs      []string `json:"ids"`
	Category *string  `json:"category"`

	// Query matches documents whose ID or title contains it, case-insensitively.
	Query *string `json:"query"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

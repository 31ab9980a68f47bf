package dockb

import (
	"context"
	"regexp"
	"time"
)

// DefaultSimilarityThreshold is the minimum cosine similarity for semantic hits.
const DefaultSimilarityThreshold = 0.5

var knowledgeBaseNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// KnowledgeBase is a named, independently managed collection of indexed documents.
type KnowledgeBase struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Config    KnowledgeBaseConfig `json:"config" yaml:"config"`
	CreatedAt time.Time           `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time           `json:"updatedAt" yaml:"updated_at"`
}

// Validate returns an error if the knowledge base contains invalid fields.
func (kb *KnowledgeBase) Validate() error {
	if err := ValidateKnowledgeBaseName(kb.Name); err != nil {
		return err
	}
	return kb.Config.Validate()
}

// KnowledgeBaseConfig holds per knowledge base settings.
type KnowledgeBaseConfig struct {
	Description         string  `json:"description,omitempty" yaml:"description,omitempty"`
	SourceURL           string  `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`
	EmbeddingsEnabled   bool    `json:"embeddingsEnabled" yaml:"embeddings_enabled"`
	SimilarityThreshold float64 `json:"similarityThreshold" yaml:"similarity_threshold"`
	ScopePrefix         string  `json:"scopePrefix,omitempty" yaml:"scope_prefix,omitempty"`
}

// DefaultKnowledgeBaseConfig returns the configuration used for knowledge
// bases created implicitly by an index operation.
func DefaultKnowledgeBaseConfig() KnowledgeBaseConfig {
	return KnowledgeBaseConfig{
		EmbeddingsEnabled:   true,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// Validate returns an error if the configuration contains invalid fields.
func (c *KnowledgeBaseConfig) Validate() error {
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return Errorf(EINVALID, "similarity threshold must be between -1 and 1, got %v", c.SimilarityThreshold)
	}
	return nil
}

// ValidateKnowledgeBaseName returns EINVALID unless name is usable as a
// directory name on every supported platform.
func ValidateKnowledgeBaseName(name string) error {
	if name == "" {
		return Errorf(EINVALID, "knowledge base name required")
	}
	if !knowledgeBaseNameRE.MatchString(name) {
		return Errorf(EINVALID, "invalid knowledge base name %q: use letters, digits, '.', '_' or '-'", name)
	}
	return nil
}

// KnowledgeBaseUpdate represents a set of fields to update on a knowledge base.
type KnowledgeBaseUpdate struct {
	Description         *string  `json:"description"`
	SourceURL           *string  `json:"sourceUrl"`
	EmbeddingsEnabled   *bool    `json:"embeddingsEnabled"`
	SimilarityThreshold *float64 `json:"similarityThreshold"`
	ScopePrefix         *string  `json:"scopePrefix"`
}

// KnowledgeBaseSummary describes a knowledge base and its contents.
type KnowledgeBaseSummary struct {
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	SourceURL         string    `json:"sourceUrl,omitempty"`
	EmbeddingsEnabled bool      `json:"embeddingsEnabled"`
	DocumentCount     int       `json:"documentCount"`
	VectorCount       int       `json:"vectorCount"`
	TotalChars        int       `json:"totalChars"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	LastIndexedAt     time.Time `json:"lastIndexedAt"`
}

// Storage groups the per knowledge base storage services.
type Storage struct {
	KnowledgeBase *KnowledgeBase
	Documents     DocumentService
	Lexical       SearchIndex
	Vectors       VectorService
}

// KnowledgeBaseRegistry creates, opens and destroys knowledge bases.
// Knowledge bases are fully independent of each other.
type KnowledgeBaseRegistry interface {
	// CreateKnowledgeBase creates a new knowledge base and returns its storage.
	// Returns ECONFLICT if a knowledge base with the same name exists.
	CreateKnowledgeBase(ctx context.Context, kb *KnowledgeBase) (*Storage, error)

	// OpenKnowledgeBase returns the storage of an existing knowledge base.
	// Returns ENOTFOUND if the knowledge base does not exist.
	OpenKnowledgeBase(ctx context.Context, name string) (*Storage, error)

	// FindKnowledgeBases returns all knowledge bases sorted by name.
	FindKnowledgeBases(ctx context.Context) ([]*KnowledgeBase, error)

	// UpdateKnowledgeBase updates the configuration of a knowledge base.
	// Returns ENOTFOUND if the knowledge base does not exist.
	UpdateKnowledgeBase(ctx context.Context, name string, upd KnowledgeBaseUpdate) (*KnowledgeBase, error)

	// DeleteKnowledgeBase permanently removes a knowledge base and everything it owns.
	// Returns ENOTFOUND if the knowledge base does not exist.
	DeleteKnowledgeBase(ctx context.Context, name string) error
}

// RemoveAllDocuments is the sentinel URL that removes every document of a
// knowledge base.
const RemoveAllDocuments = "*all*"

// IndexPagesOptions controls KnowledgeBaseService.IndexPages.
type IndexPagesOptions struct {
	Metadata     DocumentMetadata
	ForceRefresh bool
}

// IndexDomainOptions controls KnowledgeBaseService.IndexDomain.
type IndexDomainOptions struct {
	// MaxPages bounds the pages fetched. Zero uses the crawler default.
	MaxPages int

	// MaxDepth is the number of link hops followed. Nil uses the crawler default.
	MaxDepth *int

	// ScopePrefix restricts the crawl to paths under it. When empty the
	// prefix configured for the knowledge base is used, then the path of
	// the domain URL.
	ScopePrefix string

	ForceRefresh bool
	Metadata     DocumentMetadata
}

// RefreshResult is the outcome of a refresh.
type RefreshResult struct {
	// URLs lists the documents that were (or, on a dry run, would be) re-fetched.
	URLs   []string     `json:"urls"`
	Report *IndexReport `json:"report,omitempty"`
}

// KnowledgeBaseService represents the operations on knowledge bases.
type KnowledgeBaseService interface {
	// CreateKnowledgeBase creates an empty knowledge base.
	// Returns ECONFLICT if the name is taken.
	CreateKnowledgeBase(ctx context.Context, kb *KnowledgeBase) (*KnowledgeBase, error)

	// UpdateKnowledgeBase changes the configuration of a knowledge base.
	UpdateKnowledgeBase(ctx context.Context, name string, upd KnowledgeBaseUpdate) (*KnowledgeBase, error)

	// IndexPages fetches and indexes pages without following links. The
	// knowledge base is created when missing.
	IndexPages(ctx context.Context, name string, urls []string, opts IndexPagesOptions) (*IndexReport, error)

	// IndexDomain crawls a domain or sitemap. The knowledge base is created
	// when missing.
	IndexDomain(ctx context.Context, name, target string, opts IndexDomainOptions) (*IndexReport, error)

	// Search runs a hybrid search. Returns ENOTFOUND for an unknown
	// knowledge base and EINVALID for an empty query.
	Search(ctx context.Context, name, query string, topK int) ([]*SearchResult, error)

	// ListDocuments returns summaries of the documents matching filter.
	ListDocuments(ctx context.Context, name string, filter DocumentFilter) ([]*DocumentSummary, error)

	// GetDocument returns a stored document by URL.
	GetDocument(ctx context.Context, name, url string) (*Document, error)

	// RemoveDocuments deletes documents by URL and returns how many existed.
	// A RemoveAllDocuments entry empties the knowledge base.
	RemoveDocuments(ctx context.Context, name string, urls []string) (int, error)

	// DeleteKnowledgeBase removes a knowledge base and everything it owns.
	DeleteKnowledgeBase(ctx context.Context, name string) error

	// ListKnowledgeBases returns a summary of every knowledge base, sorted by name.
	ListKnowledgeBases(ctx context.Context) ([]*KnowledgeBaseSummary, error)

	// Refresh re-fetches every stored document and rewrites changed ones.
	// A dry run only lists the documents.
	Refresh(ctx context.Context, name string, dryRun bool) (*RefreshResult, error)

	// BackfillVectors embeds documents lacking a current vector.
	BackfillVectors(ctx context.Context, name string) (int, error)
}

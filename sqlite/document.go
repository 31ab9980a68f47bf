package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fwojciec/dockb"
)

// Compile-time interface verification.
var _ dockb.DocumentService = (*DocumentService)(nil)

// DocumentService implements dockb.DocumentService using SQLite.
// Lexicon rows and vectors are written in the same transaction as the
// document they belong to.
type DocumentService struct {
	db        *DB
	tokenizer dockb.Tokenizer
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB, tokenizer dockb.Tokenizer) *DocumentService {
	return &DocumentService{db: db, tokenizer: tokenizer}
}

// PutDocument stores doc, its lexicon row and its vector atomically.
func (s *DocumentService) PutDocument(ctx context.Context, doc *dockb.Document, force bool) (dockb.PutOutcome, error) {
	if err := doc.Validate(); err != nil {
		return dockb.PutUnchanged, err
	}
	doc.Metadata = doc.Metadata.WithDefaults()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dockb.PutUnchanged, err
	}
	defer tx.Rollback()

	var storedHash, createdAt string
	err = tx.QueryRowContext(ctx, `SELECT content_hash, created_at FROM documents WHERE id = ?`, doc.ID).
		Scan(&storedHash, &createdAt)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return dockb.PutUnchanged, err
	}

	now := s.db.Now().UTC()

	if exists && storedHash == doc.ContentHash {
		if !force {
			return dockb.PutUnchanged, nil
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET indexed_at = ?, category = ?, tags = ?, priority = ?,
				meta_title = ?, meta_description = ?
			WHERE id = ?
		`, formatTime(now), doc.Metadata.Category, marshalStrings(doc.Metadata.Tags), doc.Metadata.Priority,
			doc.Metadata.Title, doc.Metadata.Description, doc.ID); err != nil {
			return dockb.PutUnchanged, err
		}
		if err := tx.Commit(); err != nil {
			return dockb.PutUnchanged, err
		}
		doc.IndexedAt = now
		if doc.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return dockb.PutRefreshed, err
		}
		return dockb.PutRefreshed, nil
	}

	outcome := dockb.PutCreated
	doc.CreatedAt = now
	if exists {
		outcome = dockb.PutUpdated
		if doc.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return dockb.PutUnchanged, err
		}
	}
	doc.IndexedAt = now

	terms := s.tokenizer.Tokenize(lexicalText(doc))

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, description, breadcrumb, content_hash, domain, depth,
			category, tags, priority, meta_title, meta_description, created_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			breadcrumb = excluded.breadcrumb,
			content_hash = excluded.content_hash,
			domain = excluded.domain,
			depth = excluded.depth,
			category = excluded.category,
			tags = excluded.tags,
			priority = excluded.priority,
			meta_title = excluded.meta_title,
			meta_description = excluded.meta_description,
			indexed_at = excluded.indexed_at
	`, doc.ID, doc.Title, doc.Description, doc.Breadcrumb, doc.ContentHash, doc.Domain, doc.Depth,
		doc.Metadata.Category, marshalStrings(doc.Metadata.Tags), doc.Metadata.Priority,
		doc.Metadata.Title, doc.Metadata.Description, formatTime(doc.CreatedAt), formatTime(doc.IndexedAt)); err != nil {
		return dockb.PutUnchanged, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO contents (document_id, source_url, text, markdown, links)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			source_url = excluded.source_url,
			text = excluded.text,
			markdown = excluded.markdown,
			links = excluded.links
	`, doc.ID, doc.SourceURL, doc.Text, doc.Markdown, marshalStrings(doc.Links)); err != nil {
		return dockb.PutUnchanged, err
	}

	if err := writeLexicon(ctx, tx, doc.ID, terms); err != nil {
		return dockb.PutUnchanged, err
	}

	// A vector computed for older content is stale once the hash changes.
	if doc.Vector != nil {
		doc.Vector.DocumentID = doc.ID
		if err := writeVector(ctx, tx, doc.Vector, now); err != nil {
			return dockb.PutUnchanged, err
		}
	} else if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE document_id = ?`, doc.ID); err != nil {
		return dockb.PutUnchanged, err
	}

	if err := tx.Commit(); err != nil {
		return dockb.PutUnchanged, err
	}
	return outcome, nil
}

// FindDocumentByID retrieves a document by ID.
func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*dockb.Document, error) {
	docs, err := s.FindDocuments(ctx, dockb.DocumentFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, dockb.Errorf(dockb.ENOTFOUND, "document %q not found", id)
	}
	return docs[0], nil
}

// FindDocuments retrieves documents matching the filter, most recently
// indexed first. A non-nil but empty IDs filter matches nothing.
func (s *DocumentService) FindDocuments(ctx context.Context, filter dockb.DocumentFilter) ([]*dockb.Document, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return nil, nil
	}

	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT d.id, c.source_url, d.title, d.description, d.breadcrumb, c.text, c.markdown, c.links,
			d.content_hash, d.domain, d.depth, d.category, d.tags, d.priority, d.meta_title, d.meta_description,
			d.created_at, d.indexed_at
		FROM documents d
		JOIN contents c ON c.document_id = d.id
		WHERE 1=1`)

	if filter.ID != nil {
		query.WriteString(" AND d.id = ?")
		args = append(args, *filter.ID)
	}
	if len(filter.IDs) > 0 {
		query.WriteString(" AND d.id IN (" + placeholders(len(filter.IDs)) + ")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.Category != nil {
		query.WriteString(" AND d.category = ?")
		args = append(args, *filter.Category)
	}
	if filter.Query != nil && *filter.Query != "" {
		query.WriteString(" AND (LOWER(d.id) LIKE ? OR LOWER(d.title) LIKE ?)")
		pattern := "%" + strings.ToLower(*filter.Query) + "%"
		args = append(args, pattern, pattern)
	}

	query.WriteString(" ORDER BY d.indexed_at DESC, d.id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*dockb.Document
	for rows.Next() {
		var doc dockb.Document
		var links, tags, createdAt, indexedAt string

		if err := rows.Scan(&doc.ID, &doc.SourceURL, &doc.Title, &doc.Description, &doc.Breadcrumb,
			&doc.Text, &doc.Markdown, &links, &doc.ContentHash, &doc.Domain, &doc.Depth,
			&doc.Metadata.Category, &tags, &doc.Metadata.Priority, &doc.Metadata.Title, &doc.Metadata.Description,
			&createdAt, &indexedAt); err != nil {
			return nil, err
		}

		if doc.Links, err = unmarshalStrings(links, "links"); err != nil {
			return nil, err
		}
		if doc.Metadata.Tags, err = unmarshalStrings(tags, "tags"); err != nil {
			return nil, err
		}
		if doc.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if doc.IndexedAt, err = parseTime(indexedAt, "indexed_at"); err != nil {
			return nil, err
		}

		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// ContentHash returns the stored content hash of a document.
func (s *DocumentService) ContentHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM documents WHERE id = ?`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", dockb.Errorf(dockb.ENOTFOUND, "document %q not found", id)
	}
	return hash, err
}

// DeleteDocument permanently removes a document. Content and vector rows are
// removed by cascade and the lexicon row by trigger, in the same statement.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return dockb.Errorf(dockb.ENOTFOUND, "document %q not found", id)
	}

	return nil
}

// DeleteAllDocuments removes every document of the knowledge base.
func (s *DocumentService) DeleteAllDocuments(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}

// Stats returns aggregate counts for the store.
func (s *DocumentService) Stats(ctx context.Context) (*dockb.DocumentStats, error) {
	var stats dockb.DocumentStats
	var lastIndexed sql.NullString

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(c.text)), 0), MAX(d.indexed_at)
		FROM documents d
		JOIN contents c ON c.document_id = d.id
	`).Scan(&stats.DocumentCount, &stats.TotalChars, &lastIndexed); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&stats.VectorCount); err != nil {
		return nil, err
	}

	if lastIndexed.Valid {
		t, err := parseTime(lastIndexed.String, "indexed_at")
		if err != nil {
			return nil, err
		}
		stats.LastIndexedAt = t
	}
	return &stats, nil
}

// lexicalText returns the text indexed by the lexical index for doc.
func lexicalText(doc *dockb.Document) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{doc.Title, doc.Breadcrumb, doc.Description, doc.Text} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

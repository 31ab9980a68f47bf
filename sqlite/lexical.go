package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"

	"github.com/fwojciec/dockb"
)

// Compile-time interface verification.
var _ dockb.SearchIndex = (*LexicalIndex)(nil)

// LexicalIndex ranks documents with the BM25 function of an FTS5 table.
// Text is tokenized in Go before it is stored, so FTS5 sees the same
// stop-word-free terms at index and query time. Each lexicon row shares its
// rowid with the document it indexes.
type LexicalIndex struct {
	db        *DB
	tokenizer dockb.Tokenizer
}

// NewLexicalIndex creates a new LexicalIndex.
func NewLexicalIndex(db *DB, tokenizer dockb.Tokenizer) *LexicalIndex {
	return &LexicalIndex{db: db, tokenizer: tokenizer}
}

// UpsertDocument re-tokenizes a stored document and replaces its lexicon row.
// Returns ENOTFOUND if the document is not in the store.
func (idx *LexicalIndex) UpsertDocument(ctx context.Context, doc *dockb.Document) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, doc.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return dockb.Errorf(dockb.ENOTFOUND, "document %q not found", doc.ID)
	} else if err != nil {
		return err
	}

	if err := writeLexicon(ctx, tx, doc.ID, idx.tokenizer.Tokenize(lexicalText(doc))); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveDocument drops the lexicon row of a document. The document itself
// stays in the store but no longer matches lexical searches.
func (idx *LexicalIndex) RemoveDocument(ctx context.Context, id string) error {
	_, err := idx.db.ExecContext(ctx, `
		DELETE FROM lexicon WHERE rowid = (SELECT rowid FROM documents WHERE id = ?)
	`, id)
	return err
}

// Search ranks documents matching any query term with BM25. Ties are broken
// by most recent indexing time, then by ID.
func (idx *LexicalIndex) Search(ctx context.Context, query string, topK int) ([]dockb.Hit, error) {
	match := matchExpression(idx.tokenizer.Tokenize(query))
	if match == "" || topK <= 0 {
		return nil, nil
	}

	// bm25() is negative, lower is better.
	rows, err := idx.db.QueryContext(ctx, `
		SELECT d.id, -bm25(lexicon) AS score, d.indexed_at
		FROM lexicon
		JOIN documents d ON d.rowid = lexicon.rowid
		WHERE lexicon MATCH ?
		ORDER BY score DESC, d.indexed_at DESC, d.id ASC
		LIMIT ?
	`, match, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []dockb.Hit
	for rows.Next() {
		var hit dockb.Hit
		var at string
		if err := rows.Scan(&hit.DocumentID, &hit.Score, &at); err != nil {
			return nil, err
		}
		if hit.IndexedAt, err = parseTime(at, "indexed_at"); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// writeLexicon replaces the lexicon row of a document within tx.
func writeLexicon(ctx context.Context, tx *sql.Tx, docID string, terms []string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM lexicon WHERE rowid = (SELECT rowid FROM documents WHERE id = ?)
	`, docID); err != nil {
		return err
	}
	if len(terms) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO lexicon (rowid, terms) SELECT rowid, ? FROM documents WHERE id = ?
	`, strings.Join(terms, " "), docID)
	return err
}

// matchExpression builds an FTS5 query matching any of terms. Each term is
// quoted so that FTS5 operators and punctuation are taken literally.
func matchExpression(terms []string) string {
	seen := make(map[string]bool, len(terms))
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if seen[t] || !hasWordChar(t) {
			continue
		}
		seen[t] = true
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// hasWordChar reports whether s contains a letter or digit, the only
// characters the FTS5 unicode61 tokenizer keeps.
func hasWordChar(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

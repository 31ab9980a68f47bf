package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/dockb"
)

// Compile-time interface verification.
var _ dockb.VectorService = (*VectorService)(nil)

// VectorService implements dockb.VectorService using SQLite.
type VectorService struct {
	db *DB
}

// NewVectorService creates a new VectorService.
func NewVectorService(db *DB) *VectorService {
	return &VectorService{db: db}
}

// PutVector stores the vector of an existing document.
func (s *VectorService) PutVector(ctx context.Context, v *dockb.Vector) error {
	if v.DocumentID == "" {
		return dockb.Errorf(dockb.EINVALID, "vector document ID required")
	}
	if len(v.Values) == 0 {
		return dockb.Errorf(dockb.EINVALID, "vector values required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, v.DocumentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return dockb.Errorf(dockb.ENOTFOUND, "document %q not found", v.DocumentID)
	} else if err != nil {
		return err
	}

	if err := writeVector(ctx, tx, v, s.db.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteVector removes the vector of a document, if any.
func (s *VectorService) DeleteVector(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE document_id = ?`, documentID)
	return err
}

// FindVectors returns all stored vectors ordered by document ID.
func (s *VectorService) FindVectors(ctx context.Context) ([]*dockb.Vector, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, provider, dimensions, data FROM vectors ORDER BY document_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vectors []*dockb.Vector
	for rows.Next() {
		var v dockb.Vector
		var dims int
		var data []byte
		if err := rows.Scan(&v.DocumentID, &v.Provider, &dims, &data); err != nil {
			return nil, err
		}
		if v.Values, err = decodeVector(data, dims); err != nil {
			return nil, err
		}
		vectors = append(vectors, &v)
	}
	return vectors, rows.Err()
}

// FindDocumentsWithoutVector returns the IDs of documents lacking a vector.
func (s *VectorService) FindDocumentsWithoutVector(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id FROM documents d
		LEFT JOIN vectors v ON v.document_id = d.id
		WHERE v.document_id IS NULL
		ORDER BY d.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// writeVector upserts a vector within tx.
func writeVector(ctx context.Context, tx *sql.Tx, v *dockb.Vector, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO vectors (document_id, provider, dimensions, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			provider = excluded.provider,
			dimensions = excluded.dimensions,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, v.DocumentID, v.Provider, len(v.Values), encodeVector(v.Values), formatTime(now))
	return err
}

package database

import (
	"context"
	"database/sql"

	apperrors "tas-agent/errors"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// Document is one stored knowledge-base chunk. DataID names the metadata
// document it was cut from and DocIndex its position inside it.
type Document struct {
	DataID     string
	DocIndex   int
	Content    string
	Similarity float64
}

// DocumentStore runs nearest-neighbour searches over embedded chunks.
type DocumentStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDocumentStore(db *sql.DB, logger *zap.Logger) *DocumentStore {
	return &DocumentStore{db: db, logger: logger}
}

// Search returns up to k chunks ordered by cosine distance to embedding.
func (s *DocumentStore) Search(ctx context.Context, embedding []float32, k int) ([]Document, error) {
	if k <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data_id, doc_index, content,
			1 - (embedding <=> $1) AS similarity
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "search documents")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.DataID, &d.DocIndex, &d.Content, &d.Similarity); err != nil {
			return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "scan document")
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "iterate documents")
	}

	s.logger.Debug("Document search complete", zap.Int("k", k), zap.Int("found", len(docs)))
	return docs, nil
}

// AddDocument stores one embedded chunk.
func (s *DocumentStore) AddDocument(ctx context.Context, doc Document, embedding []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (data_id, doc_index, content, embedding)
		VALUES ($1, $2, $3, $4)
	`, doc.DataID, doc.DocIndex, doc.Content, pgvector.NewVector(embedding))
	if err != nil {
		return apperrors.Join(apperrors.ErrDatabaseOperation, err, "insert document %s/%d", doc.DataID, doc.DocIndex)
	}
	return nil
}

package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"thinkr-backend/internal/models"
)

// QueryEmbedder turns a search query into a vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store keeps corpus chunks and their embeddings in Postgres (pgvector).
type Store struct {
	pool       *pgxpool.Pool
	embedder   QueryEmbedder
	topK       int
	dimensions int
}

func NewStore(pool *pgxpool.Pool, embedder QueryEmbedder, topK, dimensions int) *Store {
	if topK <= 0 {
		topK = 4
	}
	return &Store{
		pool:       pool,
		embedder:   embedder,
		topK:       topK,
		dimensions: dimensions,
	}
}

// SimilaritySearch returns the topK chunks closest to text by cosine distance.
func (s *Store) SimilaritySearch(ctx context.Context, text string) ([]models.Document, error) {
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if err := s.checkDimensions(vec); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source, chunk_index, content, 1 - (embedding <=> $1) AS score, created_at
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(vec), s.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Source, &d.ChunkIndex, &d.Content, &d.Score, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	return docs, nil
}

// AddDocuments inserts chunks with their embeddings in one transaction.
func (s *Store) AddDocuments(ctx context.Context, docs []models.Document, embeddings [][]float32) error {
	if err := s.checkBatch(docs, embeddings); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertDocuments(ctx, tx, docs, embeddings); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// ReplaceSource swaps every chunk of source for docs in one transaction and
// returns how many old chunks were removed. On failure the old chunks stay.
func (s *Store) ReplaceSource(ctx context.Context, source string, docs []models.Document, embeddings [][]float32) (int64, error) {
	if err := s.checkBatch(docs, embeddings); err != nil {
		return 0, err
	}
	for _, d := range docs {
		if d.Source != source {
			return 0, fmt.Errorf("document from %q cannot replace %q", d.Source, source)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM documents WHERE source = $1", source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents for %s: %w", source, err)
	}

	if err := insertDocuments(ctx, tx, docs, embeddings); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit documents for %s: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

func insertDocuments(ctx context.Context, tx pgx.Tx, docs []models.Document, embeddings [][]float32) error {
	batch := &pgx.Batch{}
	for i := range docs {
		if docs[i].ID == uuid.Nil {
			docs[i].ID = uuid.New()
		}
		batch.Queue(`
			INSERT INTO documents (id, source, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, docs[i].ID, docs[i].Source, docs[i].ChunkIndex, docs[i].Content, pgvector.NewVector(embeddings[i]))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

// DeleteBySource removes every chunk previously ingested from source.
func (s *Store) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE source = $1", source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents for %s: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *Store) checkBatch(docs []models.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("got %d documents but %d embeddings", len(docs), len(embeddings))
	}
	for _, e := range embeddings {
		if err := s.checkDimensions(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) checkDimensions(vec []float32) error {
	if s.dimensions > 0 && len(vec) != s.dimensions {
		return fmt.Errorf("embedding has %d dimensions, store expects %d", len(vec), s.dimensions)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

type ChunkRepository struct {
	db  *sql.DB
	dim int
}

func NewChunkRepository(db *sql.DB, embeddingDim int) *ChunkRepository {
	return &ChunkRepository{db: db, dim: embeddingDim}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	// No ANN index: pgvector caps ivfflat/hnsw at 2000 dimensions and the
	// corpus is small enough for exact scans.
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	page INTEGER,
	chunk_index INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL,
	content_ar TEXT,
	embedding vector(%d),
	language TEXT NOT NULL DEFAULT 'en',
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_language ON documents(language);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`, r.dim)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) FindTopK(ctx context.Context, queryVector []float32, language domain.Language, k int) ([]domain.RetrievalResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source, page, content, content_ar, 1 - (embedding <=> $1) AS similarity
FROM documents
WHERE language = $2 OR language = 'both'
ORDER BY embedding <=> $1
LIMIT $3
`, pgvector.NewVector(queryVector), string(language), k)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "vector search", err)
	}
	defer rows.Close()

	return scanResults(rows, language, true)
}

func (r *ChunkRepository) FindByKeyword(ctx context.Context, keyword string, language domain.Language, k int) ([]domain.RetrievalResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source, page, content, content_ar, 0::float8 AS similarity
FROM documents
WHERE LOWER(content) LIKE LOWER($1)
  AND (language = $2 OR language = 'both')
LIMIT $3
`, "%"+keyword+"%", string(language), k)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "keyword search", err)
	}
	defer rows.Close()

	return scanResults(rows, language, false)
}

func (r *ChunkRepository) FindRecent(ctx context.Context, language domain.Language, k int) ([]domain.RetrievalResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source, page, content, content_ar, 0::float8 AS similarity
FROM documents
WHERE language = $1 OR language = 'both'
ORDER BY created_at DESC
LIMIT $2
`, string(language), k)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "recent chunks", err)
	}
	defer rows.Close()

	return scanResults(rows, language, false)
}

func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "insert chunks", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStore, "insert chunks", fmt.Errorf("marshal metadata: %w", err))
		}
		var contentAr any
		if chunk.ContentAr != "" {
			contentAr = chunk.ContentAr
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, source, page, chunk_index, content, content_ar, embedding, language, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
			chunk.ID, chunk.Source, chunk.Page, chunk.ChunkIndex, chunk.Content, contentAr,
			pgvector.NewVector(chunk.Embedding), string(chunk.Language), metadataJSON, chunk.CreatedAt,
		)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStore, "insert chunks", err)
		}
		ids = append(ids, chunk.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "insert chunks", err)
	}
	return ids, nil
}

func (r *ChunkRepository) GetChunkByID(ctx context.Context, id string) (*domain.DocumentChunk, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, source, page, chunk_index, content, content_ar, embedding, language, metadata, created_at
FROM documents
WHERE id = $1
`, id)

	var chunk domain.DocumentChunk
	var contentAr sql.NullString
	var embedding pgvector.Vector
	var language string
	var metadataRaw []byte

	err := row.Scan(
		&chunk.ID, &chunk.Source, &chunk.Page, &chunk.ChunkIndex, &chunk.Content,
		&contentAr, &embedding, &language, &metadataRaw, &chunk.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get chunk", fmt.Errorf("chunk %s", id))
		}
		return nil, domain.WrapError(domain.ErrStore, "get chunk", err)
	}

	chunk.ContentAr = contentAr.String
	chunk.Embedding = embedding.Slice()
	chunk.Language = domain.Language(language)
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &chunk.Metadata); err != nil {
			return nil, domain.WrapError(domain.ErrStore, "get chunk", fmt.Errorf("unmarshal metadata: %w", err))
		}
	}
	return &chunk, nil
}

func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET embedding = $2, metadata = metadata - $3
WHERE id = $1
`, id, pgvector.NewVector(embedding), domain.MetadataEmbeddingStatus)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update embedding", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStore, "update embedding", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update embedding", fmt.Errorf("chunk %s", id))
	}
	return nil
}

// scanResults maps rows of (id, source, page, content, content_ar, similarity)
// to retrieval results, resolving text for the requested language. Similarity
// is clamped when it comes from the distance operator; inner-product edge
// cases can push it slightly outside [0, 1].
func scanResults(rows *sql.Rows, language domain.Language, clamp bool) ([]domain.RetrievalResult, error) {
	var results []domain.RetrievalResult
	for rows.Next() {
		var chunk domain.DocumentChunk
		var page sql.NullInt64
		var contentAr sql.NullString
		var score float64

		if err := rows.Scan(&chunk.ID, &chunk.Source, &page, &chunk.Content, &contentAr, &score); err != nil {
			return nil, domain.WrapError(domain.ErrStore, "scan chunk row", err)
		}
		chunk.ContentAr = contentAr.String

		result := domain.RetrievalResult{
			ChunkID: chunk.ID,
			Source:  chunk.Source,
			Text:    chunk.ResolvedText(language),
			Score:   score,
		}
		if clamp {
			result.Score = clampUnit(score)
		}
		if page.Valid {
			p := int(page.Int64)
			result.Page = &p
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "iterate chunk rows", err)
	}
	return results, nil
}

func clampUnit(v float64) float64 {
	// A zero embedding makes <=> return NaN, which survives both
	// comparisons below and would poison confidence math and JSON
	// encoding downstream.
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

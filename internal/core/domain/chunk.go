package domain

import "time"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
	// LanguageAny marks chunks that match every language filter.
	LanguageAny Language = "both"
)

// Matches reports whether a chunk tagged with l is visible under the
// requested language filter.
func (l Language) Matches(requested Language) bool {
	return l == requested || l == LanguageAny
}

// MetadataEmbeddingStatus flags chunks whose embedding could not be computed
// at ingest time. Such chunks carry a zero vector until the worker repairs them.
const (
	MetadataEmbeddingStatus = "embedding_status"
	EmbeddingStatusPending  = "pending"
)

// DocumentChunk is the unit of embedding and retrieval.
type DocumentChunk struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Page       *int              `json:"page,omitempty"`
	ChunkIndex int               `json:"chunk_index"`
	Content    string            `json:"content"`
	ContentAr  string            `json:"content_ar,omitempty"`
	Embedding  []float32         `json:"-"`
	Language   Language          `json:"language"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ResolvedText returns the chunk text for the requested language: the Arabic
// translation when the caller asked for Arabic and one exists, the primary
// content otherwise.
func (c DocumentChunk) ResolvedText(requested Language) string {
	if requested == LanguageArabic && c.ContentAr != "" {
		return c.ContentAr
	}
	return c.Content
}

// RetrievalResult is an ephemeral per-query view of a chunk. It is created by
// the store, consumed by the scorer and prompt assembler, and discarded once
// the response is built.
type RetrievalResult struct {
	ChunkID string  `json:"chunk_id"`
	Source  string  `json:"source"`
	Page    *int    `json:"page,omitempty"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

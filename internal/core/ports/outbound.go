package ports

import (
	"context"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

// ChunkStore persists and searches document chunks. Search methods resolve
// chunk text for the requested language before returning results.
type ChunkStore interface {
	FindTopK(ctx context.Context, queryVector []float32, language domain.Language, k int) ([]domain.RetrievalResult, error)
	FindByKeyword(ctx context.Context, keyword string, language domain.Language, k int) ([]domain.RetrievalResult, error)
	FindRecent(ctx context.Context, language domain.Language, k int) ([]domain.RetrievalResult, error)
	// InsertChunks commits all chunks of one document atomically.
	InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) ([]string, error)
}

// ChunkMaintenance repairs chunks that were ingested with a placeholder
// embedding.
type ChunkMaintenance interface {
	GetChunkByID(ctx context.Context, id string) (*domain.DocumentChunk, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Embedder maps text to fixed-length dense vectors. Failures carry
// domain.ErrEmbeddingUnavailable when the upstream reports a capacity
// condition and domain.ErrEmbedding otherwise.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the model-backed answer from a system instruction and
// conversation turns. Failures carry domain.ErrGenerationUnavailable or
// domain.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, systemInstruction string, turns []domain.Turn) (string, error)
}

// Chunker splits raw text into retrieval-sized pieces.
type Chunker interface {
	Split(text string) []string
}

// LanguageDetector tags raw text with a language. Pure function, no side
// effects.
type LanguageDetector func(text string) domain.Language

// ReembedQueue carries chunk IDs awaiting embedding repair.
type ReembedQueue interface {
	PublishReembedRequested(ctx context.Context, chunkID string) error
	SubscribeReembedRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ConversationStore persists session bookkeeping for the chat endpoint.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	// SaveExchange persists both sides of a chat turn and the assistant's
	// citations atomically, so a failure never leaves half a turn behind.
	SaveExchange(ctx context.Context, userMsg, assistantMsg *domain.Message, citations []domain.Citation) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	SaveFeedback(ctx context.Context, fb *domain.Feedback) error
	Analytics(ctx context.Context) (*domain.Analytics, error)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
)

// IngestUseCase turns raw document text into persisted, embedded chunks.
// All chunks of one request are committed atomically. When the embedder is
// unavailable the chunks are stored with a zero-vector placeholder, marked
// pending, and queued for re-embedding; any other embedding failure aborts
// the request with the store untouched.
type IngestUseCase struct {
	chunker      ports.Chunker
	embedder     ports.Embedder
	store        ports.ChunkStore
	queue        ports.ReembedQueue
	embeddingDim int
}

func NewIngestUseCase(
	chunker ports.Chunker,
	embedder ports.Embedder,
	store ports.ChunkStore,
	queue ports.ReembedQueue,
	embeddingDim int,
) *IngestUseCase {
	return &IngestUseCase{
		chunker:      chunker,
		embedder:     embedder,
		store:        store,
		queue:        queue,
		embeddingDim: embeddingDim,
	}
}

func (uc *IngestUseCase) IngestText(ctx context.Context, req ports.IngestRequest) ([]string, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("empty source"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("empty text"))
	}
	language := req.Language
	if language == "" {
		language = domain.LanguageEnglish
	}

	pieces := uc.chunker.Split(req.Text)
	if len(pieces) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("chunking produced zero chunks"))
	}

	vectors, degraded, err := uc.embed(ctx, pieces)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chunks := make([]domain.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		chunk := domain.DocumentChunk{
			ID:         uuid.NewString(),
			Source:     req.Source,
			Page:       pageFor(req.Page, i),
			ChunkIndex: i,
			Content:    piece,
			Language:   language,
			Embedding:  vectors[i],
			Metadata:   cloneMetadata(req.Metadata),
			CreatedAt:  now,
		}
		if degraded {
			if chunk.Metadata == nil {
				chunk.Metadata = make(map[string]string, 1)
			}
			chunk.Metadata[domain.MetadataEmbeddingStatus] = domain.EmbeddingStatusPending
		}
		chunks = append(chunks, chunk)
	}

	ids, err := uc.store.InsertChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("insert chunks: %w", err)
	}

	if degraded {
		uc.requestReembedding(ctx, ids)
	}
	return ids, nil
}

func (uc *IngestUseCase) embed(ctx context.Context, pieces []string) ([][]float32, bool, error) {
	vectors, err := uc.embedder.Embed(ctx, pieces)
	if err != nil {
		if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
			return nil, false, fmt.Errorf("embed chunks: %w", err)
		}
		slog.Warn("ingest_degraded", "reason", "embedding_unavailable", "chunks", len(pieces), "error", err)
		return zeroVectors(len(pieces), uc.embeddingDim), true, nil
	}
	if len(vectors) != len(pieces) {
		return nil, false, domain.WrapError(
			domain.ErrEmbedding,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(pieces)),
		)
	}
	return vectors, false, nil
}

// requestReembedding queues pending chunks for repair. Publish failures are
// logged only: the chunks are already committed and discoverable by their
// pending marker.
func (uc *IngestUseCase) requestReembedding(ctx context.Context, ids []string) {
	if uc.queue == nil {
		return
	}
	for _, id := range ids {
		if err := uc.queue.PublishReembedRequested(ctx, id); err != nil {
			slog.Error("reembed_publish_failed", "chunk_id", id, "error", err)
		}
	}
}

// pageFor keeps the caller-provided page for paginated ingest; the bulk path
// records the 1-based chunk position as the page.
func pageFor(requested *int, chunkIndex int) *int {
	if requested != nil {
		page := *requested
		return &page
	}
	page := chunkIndex + 1
	return &page
}

func zeroVectors(count, dim int) [][]float32 {
	vectors := make([][]float32, count)
	for i := range vectors {
		vectors[i] = make([]float32, dim)
	}
	return vectors
}

func cloneMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

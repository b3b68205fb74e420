package usecase

import (
	"context"
	"fmt"

	"github.com/aalnuaimi/legaledge/internal/core/ports"
)

// ReembedUseCase repairs chunks ingested with a zero-vector placeholder.
type ReembedUseCase struct {
	store    ports.ChunkMaintenance
	embedder ports.Embedder
}

func NewReembedUseCase(store ports.ChunkMaintenance, embedder ports.Embedder) *ReembedUseCase {
	return &ReembedUseCase{
		store:    store,
		embedder: embedder,
	}
}

// Reembed recomputes the embedding for one chunk and clears its pending
// marker. An unavailable embedder propagates so the caller can retry later.
func (uc *ReembedUseCase) Reembed(ctx context.Context, chunkID string) error {
	chunk, err := uc.store.GetChunkByID(ctx, chunkID)
	if err != nil {
		return fmt.Errorf("load chunk %s: %w", chunkID, err)
	}

	vector, err := uc.embedder.EmbedQuery(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("embed chunk %s: %w", chunkID, err)
	}

	if err := uc.store.UpdateEmbedding(ctx, chunkID, vector); err != nil {
		return fmt.Errorf("update embedding for %s: %w", chunkID, err)
	}
	return nil
}

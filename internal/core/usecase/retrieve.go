package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
)

const (
	defaultTopK = 5

	// Fixed scores assigned on the degraded retrieval paths.
	keywordFallbackScore = 0.7
	recencyFallbackScore = 0.5

	minKeywordLength = 3
)

var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "the": {}, "a": {}, "an": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "can": {}, "how": {}, "when": {}, "where": {},
	"who": {}, "why": {},
}

// Retriever returns the K most relevant chunks for a question. The primary
// path ranks by vector similarity; when the embedder reports a capacity
// condition it degrades to keyword search and finally to recency. Store
// failures yield an empty result set, never an error.
type Retriever struct {
	embedder ports.Embedder
	store    ports.ChunkStore
}

func NewRetriever(embedder ports.Embedder, store ports.ChunkStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

func (r *Retriever) Retrieve(
	ctx context.Context,
	question string,
	language domain.Language,
	k int,
) ([]domain.RetrievalResult, domain.RetrievalMode, error) {
	if k <= 0 {
		k = defaultTopK
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		if domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
			slog.Warn("retrieval_degraded", "reason", "embedding_unavailable", "error", err)
			results, mode := r.retrieveWithoutVectors(ctx, question, language, k)
			return results, mode, nil
		}
		return nil, "", fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.FindTopK(ctx, queryVector, language, k)
	if err != nil {
		slog.Error("vector_search_failed", "error", err)
		return nil, domain.RetrievalModeVector, nil
	}
	return results, domain.RetrievalModeVector, nil
}

func (r *Retriever) retrieveWithoutVectors(
	ctx context.Context,
	question string,
	language domain.Language,
	k int,
) ([]domain.RetrievalResult, domain.RetrievalMode) {
	if keyword, ok := firstKeyword(question); ok {
		results, err := r.store.FindByKeyword(ctx, keyword, language, k)
		if err != nil {
			slog.Error("keyword_search_failed", "keyword", keyword, "error", err)
			return nil, domain.RetrievalModeKeyword
		}
		if len(results) > 0 {
			return rescore(results, keywordFallbackScore), domain.RetrievalModeKeyword
		}
	}

	results, err := r.store.FindRecent(ctx, language, k)
	if err != nil {
		slog.Error("recent_search_failed", "error", err)
		return nil, domain.RetrievalModeRecent
	}
	return rescore(results, recencyFallbackScore), domain.RetrievalModeRecent
}

func rescore(results []domain.RetrievalResult, score float64) []domain.RetrievalResult {
	for i := range results {
		results[i].Score = score
	}
	return results
}

// firstKeyword returns the first query token that survives stop-word and
// length filtering.
func firstKeyword(question string) (string, bool) {
	for _, token := range tokenizeLower(question) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if len([]rune(token)) < minKeywordLength {
			continue
		}
		return token, true
	}
	return "", false
}

func tokenizeLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

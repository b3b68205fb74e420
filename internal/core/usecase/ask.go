package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
)

// AskUseCase runs the full query pipeline: language detection, retrieval with
// degraded fallback, confidence scoring, prompt assembly and answer
// generation. Citations always derive from the same retrieval results that
// built the context block.
type AskUseCase struct {
	detect    ports.LanguageDetector
	retriever *Retriever
	generator ports.Generator
	topK      int
}

func NewAskUseCase(
	detect ports.LanguageDetector,
	retriever *Retriever,
	generator ports.Generator,
	topK int,
) *AskUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &AskUseCase{
		detect:    detect,
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

func (uc *AskUseCase) Answer(
	ctx context.Context,
	question string,
	language domain.Language,
	history []domain.Turn,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("empty question"))
	}
	if language == "" {
		language = uc.detect(question)
	}

	results, retrievalMode, err := uc.retriever.Retrieve(ctx, question, language, uc.topK)
	if err != nil {
		return nil, err
	}

	confidence := MeanConfidence(results)
	coverage := CoverageFor(results)
	instruction := systemInstruction(language, buildContextBlock(results, contextChunks), coverage)

	turns := make([]domain.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: question})

	answerMode := domain.AnswerModeModel
	text, err := uc.generator.Generate(ctx, instruction, turns)
	if err != nil {
		if !domain.IsKind(err, domain.ErrGenerationUnavailable) {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		text = degradedAnswer(question, results, language)
		answerMode = domain.AnswerModeFallback
	}

	return &domain.Answer{
		Text:            text,
		ConfidenceLabel: LabelFor(results),
		Confidence:      confidence,
		Citations:       citationsFrom(results),
		Language:        language,
		NeedsReferral:   NeedsReferral(question, confidence),
		Mode:            answerMode,
		RetrievalMode:   retrievalMode,
	}, nil
}

func citationsFrom(results []domain.RetrievalResult) []domain.Citation {
	max := contextChunks
	if max > len(results) {
		max = len(results)
	}
	citations := make([]domain.Citation, 0, max)
	for _, r := range results[:max] {
		citations = append(citations, domain.Citation{
			Source:  r.Source,
			Page:    r.Page,
			Excerpt: excerpt(r.Text, citationExcerptLength),
			Score:   r.Score,
		})
	}
	return citations
}

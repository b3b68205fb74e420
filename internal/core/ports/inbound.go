package ports

import (
	"context"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

// QuestionService is the inbound contract for answering legal questions.
type QuestionService interface {
	Answer(ctx context.Context, question string, language domain.Language, history []domain.Turn) (*domain.Answer, error)
}

// IngestRequest describes one document (or one page of one) to ingest.
type IngestRequest struct {
	Source   string
	Text     string
	Language domain.Language
	Page     *int
	Metadata map[string]string
}

// DocumentIngestor is the inbound contract for adding documents to the corpus.
type DocumentIngestor interface {
	IngestText(ctx context.Context, req IngestRequest) ([]string, error)
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/aalnuaimi/legaledge/internal/config"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
	"github.com/aalnuaimi/legaledge/internal/core/usecase"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/chunking"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/llm/openai"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/queue/nats"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/repository/postgres"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/resilience"
	"github.com/aalnuaimi/legaledge/internal/language"
)

type App struct {
	Config config.Config

	Queue         *nats.Queue
	Conversations ports.ConversationStore

	AskUC  *usecase.AskUseCase
	ChatUC *usecase.ChatUseCase
	// IngestUC serves the API path with fixed windows; PDFIngestUC serves the
	// admin loader with sentence-aware windows.
	IngestUC    ports.DocumentIngestor
	PDFIngestUC ports.DocumentIngestor
	ReembedUC   *usecase.ReembedUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db, cfg.OpenAIEmbedDim)
	if err := chunkRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure chunk schema: %w", err)
	}
	conversationRepo := postgres.NewConversationRepository(db)
	if err := conversationRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure conversation schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init reembed queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	openaiClient := openai.New(openai.Config{
		BaseURL:                cfg.OpenAIBaseURL,
		APIKey:                 cfg.OpenAIAPIKey,
		GenModel:               cfg.OpenAIGenModel,
		EmbedModel:             cfg.OpenAIEmbedModel,
		EmbedRequestsPerSecond: cfg.OpenAIEmbedRPS,
	}, executor)
	embedder := openai.NewEmbedder(openaiClient)
	generator := openai.NewGenerator(openaiClient)

	retriever := usecase.NewRetriever(embedder, chunkRepo)
	askUC := usecase.NewAskUseCase(language.Detect, retriever, generator, cfg.RAGTopK)
	chatUC := usecase.NewChatUseCase(askUC, conversationRepo, cfg.ChatHistoryLimit)

	bulkChunker := chunking.NewFixedSplitter(cfg.BulkChunkSize)
	pdfChunker := chunking.NewSentenceSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkLength)
	ingestUC := usecase.NewIngestUseCase(bulkChunker, embedder, chunkRepo, queue, cfg.OpenAIEmbedDim)
	pdfIngestUC := usecase.NewIngestUseCase(pdfChunker, embedder, chunkRepo, queue, cfg.OpenAIEmbedDim)

	reembedUC := usecase.NewReembedUseCase(chunkRepo, embedder)

	return &App{
		Config: cfg,

		Queue:         queue,
		Conversations: conversationRepo,

		AskUC:       askUC,
		ChatUC:      chatUC,
		IngestUC:    ingestUC,
		PDFIngestUC: pdfIngestUC,
		ReembedUC:   reembedUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

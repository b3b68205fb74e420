package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/infrastructure/resilience"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.3
	defaultMaxTokens   = 1000
)

type Config struct {
	BaseURL    string
	APIKey     string
	GenModel   string
	EmbedModel string

	Timeout time.Duration

	// EmbedRequestsPerSecond throttles embedding calls across batch ingest.
	// Zero disables the limiter.
	EmbedRequestsPerSecond float64
	EmbedBurst             int
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
}

func New(cfg Config, executor *resilience.Executor) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.EmbedRequestsPerSecond > 0 {
		burst := cfg.EmbedBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRequestsPerSecond), burst)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		limiter:    limiter,
	}
}

// Embedder adapts the client to the core embedding port.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.client.limiter != nil {
		if err := e.client.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	request := embeddingsRequest{
		Model: e.client.cfg.EmbedModel,
		Input: texts,
	}

	var response embeddingsResponse
	err := e.client.call(ctx, "embeddings", "/v1/embeddings", request, &response)
	if err != nil {
		return nil, wrapKind("embed", err, domain.ErrEmbeddingUnavailable, domain.ErrEmbedding)
	}
	if len(response.Data) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed",
			fmt.Errorf("embeddings/inputs mismatch: %d/%d", len(response.Data), len(texts)),
		)
	}

	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})
	vectors := make([][]float32, 0, len(response.Data))
	for _, item := range response.Data {
		vectors = append(vectors, item.Embedding)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// Generator adapts the client to the core generation port.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *Generator) Generate(ctx context.Context, systemInstruction string, turns []domain.Turn) (string, error) {
	messages := make([]chatMessage, 0, len(turns)+1)
	messages = append(messages, chatMessage{Role: "system", Content: systemInstruction})
	for _, turn := range turns {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}

	request := chatRequest{
		Model:       g.client.cfg.GenModel,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	var response chatResponse
	err := g.client.call(ctx, "chat", "/v1/chat/completions", request, &response)
	if err != nil {
		return "", wrapKind("generate", err, domain.ErrGenerationUnavailable, domain.ErrGeneration)
	}
	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrGeneration, "generate", fmt.Errorf("empty choices"))
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	do := func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}
	if c.executor == nil {
		return do(ctx)
	}
	return c.executor.Execute(ctx, "openai."+operation, do, classifyOpenAIError)
}

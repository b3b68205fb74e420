package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
	"github.com/aalnuaimi/legaledge/internal/core/usecase"
	"github.com/aalnuaimi/legaledge/internal/observability/metrics"
)

const conversationPageSize = 100

// ChatService is the slice of the chat pipeline the router needs.
type ChatService interface {
	Chat(ctx context.Context, message, conversationID string, language domain.Language) (*usecase.ChatResult, error)
}

type Options struct {
	Service          string
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

type Router struct {
	ask           ports.QuestionService
	chat          ChatService
	ingestor      ports.DocumentIngestor
	conversations ports.ConversationStore
	metrics       *metrics.HTTPServerMetrics
	opts          Options
}

func NewRouter(
	ask ports.QuestionService,
	chat ChatService,
	ingestor ports.DocumentIngestor,
	conversations ports.ConversationStore,
	serverMetrics *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 200 * time.Millisecond
	}
	return &Router{
		ask:           ask,
		chat:          chat,
		ingestor:      ingestor,
		conversations: conversations,
		metrics:       serverMetrics,
		opts:          opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.askQuestion)
	mux.HandleFunc("/v1/chat", rt.chatMessage)
	mux.HandleFunc("/v1/embed", rt.embedDocument)
	mux.HandleFunc("/v1/feedback", rt.submitFeedback)
	mux.HandleFunc("/v1/conversations/", rt.getConversation)
	mux.HandleFunc("/v1/analytics", rt.getAnalytics)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	language, ok := parseLanguage(req.Language)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "language must be 'en' or 'ar'"})
		return
	}

	start := time.Now()
	answer, err := rt.ask.Answer(r.Context(), req.Question, language, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordAnswer("/v1/ask", answer, time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) chatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
		Language       string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}
	language, ok := parseLanguage(req.Language)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "language must be 'en' or 'ar'"})
		return
	}

	start := time.Now()
	result, err := rt.chat.Chat(r.Context(), req.Message, strings.TrimSpace(req.ConversationID), language)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordAnswer("/v1/chat", result.Answer, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) embedDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Source   string            `json:"source"`
		Text     string            `json:"text"`
		Language string            `json:"language"`
		Page     *int              `json:"page"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	language, ok := parseLanguage(req.Language)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "language must be 'en' or 'ar'"})
		return
	}

	ids, err := rt.ingestor.IngestText(r.Context(), ports.IngestRequest{
		Source:   req.Source,
		Text:     req.Text,
		Language: language,
		Page:     req.Page,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"chunk_ids": ids,
		"count":     len(ids),
	})
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		MessageID string `json:"message_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.MessageID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message_id is required"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
		return
	}

	feedback := &domain.Feedback{
		ID:        uuid.NewString(),
		MessageID: req.MessageID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := rt.conversations.SaveFeedback(r.Context(), feedback); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

func (rt *Router) getConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/conversations/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "conversation id is required"})
		return
	}

	conv, err := rt.conversations.GetConversation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	messages, err := rt.conversations.ListMessages(r.Context(), id, conversationPageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}

func (rt *Router) getAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	stats, err := rt.conversations.Analytics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) recordAnswer(endpoint string, answer *domain.Answer, duration time.Duration) {
	if rt.metrics == nil || answer == nil {
		return
	}
	rt.metrics.RecordAnswer(
		rt.opts.Service,
		endpoint,
		string(answer.Mode),
		string(answer.RetrievalMode),
		answer.Confidence,
		len(answer.Citations),
		answer.NeedsReferral,
		duration,
	)
}

func parseLanguage(raw string) (domain.Language, bool) {
	switch domain.Language(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case domain.LanguageEnglish:
		return domain.LanguageEnglish, true
	case domain.LanguageArabic:
		return domain.LanguageArabic, true
	default:
		return "", false
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Status is already written; the client sees a truncated
		// body, so at least leave a trace server-side.
		slog.Error("encode response", "error", err)
	}
}

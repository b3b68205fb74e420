package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
	"github.com/aalnuaimi/legaledge/internal/core/usecase"
)

type fakeQuestionService struct {
	answer       *domain.Answer
	err          error
	gotQuestion  string
	gotLanguage  domain.Language
	gotHistoryN  int
	timesInvoked int
}

func (f *fakeQuestionService) Answer(_ context.Context, question string, language domain.Language, history []domain.Turn) (*domain.Answer, error) {
	f.timesInvoked++
	f.gotQuestion = question
	f.gotLanguage = language
	f.gotHistoryN = len(history)
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type fakeChatService struct {
	result *usecase.ChatResult
	err    error
}

func (f *fakeChatService) Chat(_ context.Context, _, _ string, _ domain.Language) (*usecase.ChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeIngestor struct {
	ids    []string
	err    error
	gotReq ports.IngestRequest
}

func (f *fakeIngestor) IngestText(_ context.Context, req ports.IngestRequest) ([]string, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

type fakeConversationStore struct {
	conversation *domain.Conversation
	messages     []domain.Message
	analytics    *domain.Analytics
	feedback     *domain.Feedback
	getErr       error
	feedbackErr  error
}

func (f *fakeConversationStore) CreateConversation(context.Context, *domain.Conversation) error {
	return nil
}

func (f *fakeConversationStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.conversation, nil
}

func (f *fakeConversationStore) SaveExchange(context.Context, *domain.Message, *domain.Message, []domain.Citation) error {
	return nil
}

func (f *fakeConversationStore) ListMessages(context.Context, string, int) ([]domain.Message, error) {
	return f.messages, nil
}

func (f *fakeConversationStore) SaveFeedback(_ context.Context, fb *domain.Feedback) error {
	if f.feedbackErr != nil {
		return f.feedbackErr
	}
	f.feedback = fb
	return nil
}

func (f *fakeConversationStore) Analytics(context.Context) (*domain.Analytics, error) {
	return f.analytics, nil
}

func newTestRouter(ask *fakeQuestionService, chat *fakeChatService, ingestor *fakeIngestor, store *fakeConversationStore, opts Options) http.Handler {
	if ask == nil {
		ask = &fakeQuestionService{answer: &domain.Answer{}}
	}
	if chat == nil {
		chat = &fakeChatService{result: &usecase.ChatResult{Answer: &domain.Answer{}}}
	}
	if ingestor == nil {
		ingestor = &fakeIngestor{}
	}
	if store == nil {
		store = &fakeConversationStore{}
	}
	return NewRouter(ask, chat, ingestor, store, nil, opts).Handler()
}

func TestAskReturnsAnswerJSON(t *testing.T) {
	page := 4
	ask := &fakeQuestionService{answer: &domain.Answer{
		Text:            "Rent may increase up to 20%.",
		ConfidenceLabel: domain.ConfidenceHigh,
		Confidence:      0.88,
		Citations: []domain.Citation{
			{Source: "rent-decree.pdf", Page: &page, Excerpt: "The slabs...", Score: 0.9},
		},
		Language:      domain.LanguageEnglish,
		Mode:          domain.AnswerModeModel,
		RetrievalMode: domain.RetrievalModeVector,
	}}
	handler := newTestRouter(ask, nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"How much can rent increase?","language":"en"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if ask.gotQuestion != "How much can rent increase?" || ask.gotLanguage != domain.LanguageEnglish {
		t.Fatalf("service got question=%q language=%q", ask.gotQuestion, ask.gotLanguage)
	}
	if ask.gotHistoryN != 0 {
		t.Fatalf("ask endpoint must not pass history, got %d turns", ask.gotHistoryN)
	}

	var body struct {
		Answer        string  `json:"answer"`
		Confidence    string  `json:"confidence"`
		Numeric       float64 `json:"numeric_confidence"`
		NeedsReferral bool    `json:"needs_referral"`
		Citations     []struct {
			Source string `json:"source"`
			Page   *int   `json:"page"`
		} `json:"citations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Answer != "Rent may increase up to 20%." || body.Confidence != "High" {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Citations) != 1 || body.Citations[0].Source != "rent-decree.pdf" || *body.Citations[0].Page != 4 {
		t.Fatalf("citations = %+v", body.Citations)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAskRejectsUnknownLanguage(t *testing.T) {
	ask := &fakeQuestionService{answer: &domain.Answer{}}
	handler := newTestRouter(ask, nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q","language":"fr"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if ask.timesInvoked != 0 {
		t.Fatalf("service must not run for invalid language")
	}
}

func TestAskMapsInvalidInputTo400(t *testing.T) {
	ask := &fakeQuestionService{err: domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("empty question"))}
	handler := newTestRouter(ask, nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":""}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAskMapsUnexpectedErrorTo500(t *testing.T) {
	ask := &fakeQuestionService{err: domain.WrapError(domain.ErrGeneration, "answer question", errors.New("boom"))}
	handler := newTestRouter(ask, nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestChatRequiresMessage(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatReturnsConversationAndMessageIDs(t *testing.T) {
	chat := &fakeChatService{result: &usecase.ChatResult{
		Answer:         &domain.Answer{Text: "hello", Mode: domain.AnswerModeModel},
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		Timestamp:      time.Now().UTC(),
	}}
	handler := newTestRouter(nil, chat, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"hi"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		ConversationID string `json:"conversation_id"`
		MessageID      string `json:"message_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ConversationID != "conv-1" || body.MessageID != "msg-1" {
		t.Fatalf("body = %+v", body)
	}
}

func TestChatMapsUnknownConversationTo404(t *testing.T) {
	chat := &fakeChatService{err: domain.WrapError(domain.ErrNotFound, "load conversation", errors.New("conversation missing"))}
	handler := newTestRouter(nil, chat, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"hi","conversation_id":"missing"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestEmbedReturnsChunkIDs(t *testing.T) {
	ingestor := &fakeIngestor{ids: []string{"c1", "c2"}}
	handler := newTestRouter(nil, nil, ingestor, nil, Options{})

	body := `{"source":"tenancy-law.pdf","text":"Article 25...","language":"en","page":3,"metadata":{"category":"tenancy"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/embed", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if ingestor.gotReq.Source != "tenancy-law.pdf" || ingestor.gotReq.Page == nil || *ingestor.gotReq.Page != 3 {
		t.Fatalf("ingest request = %+v", ingestor.gotReq)
	}
	if ingestor.gotReq.Metadata["category"] != "tenancy" {
		t.Fatalf("metadata = %v", ingestor.gotReq.Metadata)
	}

	var resp struct {
		ChunkIDs []string `json:"chunk_ids"`
		Count    int      `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.ChunkIDs) != 2 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestFeedbackValidatesRating(t *testing.T) {
	store := &fakeConversationStore{}
	handler := newTestRouter(nil, nil, nil, store, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{"message_id":"m1","rating":7}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if store.feedback != nil {
		t.Fatalf("feedback must not be stored")
	}
}

func TestFeedbackStoresRatingAndComment(t *testing.T) {
	store := &fakeConversationStore{}
	handler := newTestRouter(nil, nil, nil, store, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{"message_id":"m1","rating":4,"comment":"helpful"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if store.feedback == nil || store.feedback.Rating != 4 || store.feedback.Comment != "helpful" {
		t.Fatalf("stored feedback = %+v", store.feedback)
	}
	if store.feedback.ID == "" {
		t.Fatalf("feedback id must be assigned")
	}
}

func TestGetConversationReturnsMessages(t *testing.T) {
	store := &fakeConversationStore{
		conversation: &domain.Conversation{ID: "conv-1", Language: domain.LanguageEnglish, CreatedAt: time.Now().UTC()},
		messages: []domain.Message{
			{ID: "m1", ConversationID: "conv-1", Content: "hi", IsUser: true},
			{ID: "m2", ConversationID: "conv-1", Content: "hello", IsUser: false},
		},
	}
	handler := newTestRouter(nil, nil, nil, store, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Conversation.ID != "conv-1" || len(body.Messages) != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestGetConversationMaps404(t *testing.T) {
	store := &fakeConversationStore{getErr: domain.WrapError(domain.ErrNotFound, "get conversation", errors.New("conversation missing"))}
	handler := newTestRouter(nil, nil, nil, store, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	store := &fakeConversationStore{analytics: &domain.Analytics{
		TotalConversations: 5,
		TotalMessages:      20,
		AvgRating:          4.5,
		LanguageBreakdown:  map[domain.Language]int{domain.LanguageEnglish: 4, domain.LanguageArabic: 1},
	}}
	handler := newTestRouter(nil, nil, nil, store, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		TotalConversations int     `json:"total_conversations"`
		AvgRating          float64 `json:"avg_rating"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.TotalConversations != 5 || body.AvgRating != 4.5 {
		t.Fatalf("body = %+v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/ask", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

type conversationStoreFake struct {
	conversations map[string]*domain.Conversation
	messages      []domain.Message
	citations     map[string][]domain.Citation
	getErr        error
	exchangeErr   error
}

func newConversationStoreFake() *conversationStoreFake {
	return &conversationStoreFake{
		conversations: make(map[string]*domain.Conversation),
		citations:     make(map[string][]domain.Citation),
	}
}

func (f *conversationStoreFake) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	f.conversations[conv.ID] = conv
	return nil
}

func (f *conversationStoreFake) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	conv, ok := f.conversations[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get conversation", errors.New(id))
	}
	return conv, nil
}

func (f *conversationStoreFake) SaveExchange(_ context.Context, userMsg, assistantMsg *domain.Message, citations []domain.Citation) error {
	if f.exchangeErr != nil {
		return f.exchangeErr
	}
	f.messages = append(f.messages, *userMsg, *assistantMsg)
	f.citations[assistantMsg.ID] = citations
	return nil
}

func (f *conversationStoreFake) ListMessages(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	out := make([]domain.Message, 0, limit)
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *conversationStoreFake) SaveFeedback(context.Context, *domain.Feedback) error { return nil }

func (f *conversationStoreFake) Analytics(context.Context) (*domain.Analytics, error) {
	return &domain.Analytics{}, nil
}

func TestChatCreatesConversationAndPersistsExchange(t *testing.T) {
	store := &retrieveStoreFake{topK: threeResults()}
	ask := newAskForTest(store, &retrieveEmbedderFake{}, &generatorFake{text: "answer"})
	convs := newConversationStoreFake()
	uc := NewChatUseCase(ask, convs, 10)

	result, err := uc.Chat(context.Background(), "Can my landlord evict me?", "", "")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.ConversationID == "" {
		t.Fatalf("expected a new conversation id")
	}
	if len(convs.messages) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(convs.messages))
	}
	if !convs.messages[0].IsUser || convs.messages[1].IsUser {
		t.Fatalf("message roles wrong: %+v", convs.messages)
	}
	if convs.messages[1].Confidence == nil {
		t.Fatalf("assistant message must record confidence")
	}
	if len(convs.citations[result.MessageID]) != 3 {
		t.Fatalf("expected persisted citations for assistant message")
	}
}

func TestChatPassesHistoryToGenerator(t *testing.T) {
	store := &retrieveStoreFake{topK: threeResults()}
	generator := &generatorFake{text: "answer"}
	ask := newAskForTest(store, &retrieveEmbedderFake{}, generator)
	convs := newConversationStoreFake()
	uc := NewChatUseCase(ask, convs, 10)

	first, err := uc.Chat(context.Background(), "first question", "", "")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := uc.Chat(context.Background(), "second question", first.ConversationID, ""); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	// first question + first answer as history, then the new question.
	if len(generator.turns) != 3 {
		t.Fatalf("expected 3 turns on second call, got %d", len(generator.turns))
	}
	if generator.turns[0].Content != "first question" || generator.turns[1].Role != domain.RoleAssistant {
		t.Fatalf("history not threaded through: %+v", generator.turns)
	}
}

func TestChatSurfacesExchangePersistenceFailure(t *testing.T) {
	store := &retrieveStoreFake{topK: threeResults()}
	ask := newAskForTest(store, &retrieveEmbedderFake{}, &generatorFake{text: "answer"})
	convs := newConversationStoreFake()
	convs.exchangeErr = domain.WrapError(domain.ErrStore, "save exchange", errors.New("connection reset"))
	uc := NewChatUseCase(ask, convs, 10)

	_, err := uc.Chat(context.Background(), "Can my landlord evict me?", "", "")
	if !domain.IsKind(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if len(convs.messages) != 0 {
		t.Fatalf("no messages may survive a failed exchange, got %d", len(convs.messages))
	}
}

func TestChatUnknownConversation(t *testing.T) {
	ask := newAskForTest(&retrieveStoreFake{}, &retrieveEmbedderFake{}, &generatorFake{text: "a"})
	uc := NewChatUseCase(ask, newConversationStoreFake(), 10)

	_, err := uc.Chat(context.Background(), "q", "missing-id", "")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

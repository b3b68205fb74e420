package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
)

const defaultHistoryLimit = 10

// ChatUseCase wraps the query pipeline with session bookkeeping: it loads
// prior turns from the conversation store, passes them to the core as
// explicit history and persists both sides of the exchange together with the
// answer's citations.
type ChatUseCase struct {
	ask          *AskUseCase
	conversation ports.ConversationStore
	historyLimit int
}

func NewChatUseCase(ask *AskUseCase, conversation ports.ConversationStore, historyLimit int) *ChatUseCase {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatUseCase{
		ask:          ask,
		conversation: conversation,
		historyLimit: historyLimit,
	}
}

type ChatResult struct {
	Answer         *domain.Answer `json:"answer"`
	ConversationID string         `json:"conversation_id"`
	MessageID      string         `json:"message_id"`
	Timestamp      time.Time      `json:"timestamp"`
}

func (uc *ChatUseCase) Chat(
	ctx context.Context,
	message string,
	conversationID string,
	language domain.Language,
) (*ChatResult, error) {
	if language == "" {
		language = uc.ask.detect(message)
	}

	conv, err := uc.ensureConversation(ctx, conversationID, language)
	if err != nil {
		return nil, err
	}

	history, err := uc.loadHistory(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	answer, err := uc.ask.Answer(ctx, message, language, history)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Content:        message,
		IsUser:         true,
		Language:       language,
		CreatedAt:      now,
	}
	confidence := answer.Confidence
	assistantMsg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Content:        answer.Text,
		IsUser:         false,
		Language:       language,
		Confidence:     &confidence,
		CreatedAt:      now,
	}
	if err := uc.conversation.SaveExchange(ctx, userMsg, assistantMsg, answer.Citations); err != nil {
		return nil, fmt.Errorf("save exchange: %w", err)
	}

	return &ChatResult{
		Answer:         answer,
		ConversationID: conv.ID,
		MessageID:      assistantMsg.ID,
		Timestamp:      now,
	}, nil
}

func (uc *ChatUseCase) ensureConversation(
	ctx context.Context,
	conversationID string,
	language domain.Language,
) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := uc.conversation.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		return conv, nil
	}

	conv := &domain.Conversation{
		ID:        uuid.NewString(),
		Language:  language,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.conversation.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (uc *ChatUseCase) loadHistory(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	messages, err := uc.conversation.ListMessages(ctx, conversationID, uc.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	turns := make([]domain.Turn, 0, len(messages))
	for _, msg := range messages {
		role := domain.RoleAssistant
		if msg.IsUser {
			role = domain.RoleUser
		}
		turns = append(turns, domain.Turn{Role: role, Content: msg.Content})
	}
	return turns, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	language TEXT NOT NULL DEFAULT 'en',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	content TEXT NOT NULL,
	is_user BOOLEAN NOT NULL,
	language TEXT NOT NULL DEFAULT 'en',
	confidence DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS citations (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL REFERENCES messages(id),
	source TEXT NOT NULL,
	page INTEGER,
	excerpt TEXT,
	score DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS feedbacks (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL REFERENCES messages(id),
	rating INTEGER NOT NULL,
	comment TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_citations_message ON citations(message_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (id, language, created_at)
VALUES ($1,$2,$3)
`, conv.ID, string(conv.Language), conv.CreatedAt)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "create conversation", err)
	}
	return nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, language, created_at
FROM conversations
WHERE id = $1
`, id)

	var conv domain.Conversation
	var language string
	if err := row.Scan(&conv.ID, &language, &conv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get conversation", fmt.Errorf("conversation %s", id))
		}
		return nil, domain.WrapError(domain.ErrStore, "get conversation", err)
	}
	conv.Language = domain.Language(language)
	return &conv, nil
}

// SaveExchange writes the user message, the assistant message and the
// assistant's citations in one transaction. A partial turn in the history
// would skew every later retrieval, so all three land together or not at all.
func (r *ConversationRepository) SaveExchange(ctx context.Context, userMsg, assistantMsg *domain.Message, citations []domain.Citation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "save exchange", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, msg := range []*domain.Message{userMsg, assistantMsg} {
		_, err := tx.ExecContext(ctx, `
INSERT INTO messages (id, conversation_id, content, is_user, language, confidence, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, msg.ID, msg.ConversationID, msg.Content, msg.IsUser, string(msg.Language), msg.Confidence, msg.CreatedAt)
		if err != nil {
			return domain.WrapError(domain.ErrStore, "save exchange message", err)
		}
	}

	for _, citation := range citations {
		_, err := tx.ExecContext(ctx, `
INSERT INTO citations (id, message_id, source, page, excerpt, score)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), assistantMsg.ID, citation.Source, citation.Page, citation.Excerpt, citation.Score)
		if err != nil {
			return domain.WrapError(domain.ErrStore, "save exchange citation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrStore, "save exchange", err)
	}
	return nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	// Newest-first window, reversed so callers see chronological order.
	rows, err := r.db.QueryContext(ctx, `
SELECT id, conversation_id, content, is_user, language, confidence, created_at
FROM (
	SELECT id, conversation_id, content, is_user, language, confidence, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at DESC
	LIMIT $2
) recent
ORDER BY created_at ASC
`, conversationID, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list messages", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var language string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Content, &msg.IsUser, &language, &msg.Confidence, &msg.CreatedAt); err != nil {
			return nil, domain.WrapError(domain.ErrStore, "scan message row", err)
		}
		msg.Language = domain.Language(language)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "iterate message rows", err)
	}
	return messages, nil
}

func (r *ConversationRepository) SaveFeedback(ctx context.Context, fb *domain.Feedback) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedbacks (id, message_id, rating, comment, created_at)
VALUES ($1,$2,$3,$4,$5)
`, fb.ID, fb.MessageID, fb.Rating, fb.Comment, fb.CreatedAt)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "save feedback", err)
	}
	return nil
}

func (r *ConversationRepository) Analytics(ctx context.Context) (*domain.Analytics, error) {
	stats := &domain.Analytics{LanguageBreakdown: make(map[domain.Language]int)}

	row := r.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM conversations),
	(SELECT COUNT(*) FROM messages),
	(SELECT COALESCE(AVG(rating), 0) FROM feedbacks)
`)
	if err := row.Scan(&stats.TotalConversations, &stats.TotalMessages, &stats.AvgRating); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "analytics totals", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT language, COUNT(*)
FROM conversations
GROUP BY language
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "analytics languages", err)
	}
	defer rows.Close()

	for rows.Next() {
		var language string
		var count int
		if err := rows.Scan(&language, &count); err != nil {
			return nil, domain.WrapError(domain.ErrStore, "scan language row", err)
		}
		stats.LanguageBreakdown[domain.Language(language)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "iterate language rows", err)
	}
	return stats, nil
}

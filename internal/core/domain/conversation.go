package domain

import "time"

type Conversation struct {
	ID        string    `json:"id"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	IsUser         bool      `json:"is_user"`
	Language       Language  `json:"language"`
	Confidence     *float64  `json:"confidence,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Feedback struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Analytics struct {
	TotalConversations int              `json:"total_conversations"`
	TotalMessages      int              `json:"total_messages"`
	AvgRating          float64          `json:"avg_rating"`
	LanguageBreakdown  map[Language]int `json:"language_breakdown"`
}

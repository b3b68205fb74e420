package domain

type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "High"
	ConfidenceMedium ConfidenceLabel = "Medium"
	ConfidenceLow    ConfidenceLabel = "Low"
)

type AnswerMode string

const (
	AnswerModeModel    AnswerMode = "model"
	AnswerModeFallback AnswerMode = "fallback"
)

type RetrievalMode string

const (
	RetrievalModeVector  RetrievalMode = "vector"
	RetrievalModeKeyword RetrievalMode = "keyword"
	RetrievalModeRecent  RetrievalMode = "recent"
)

// Turn is one prior exchange supplied by the caller as conversation history.
// The core holds no session state of its own.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Citation struct {
	Source  string  `json:"source"`
	Page    *int    `json:"page,omitempty"`
	Excerpt string  `json:"excerpt"`
	Score   float64 `json:"score"`
}

// Answer is the query pipeline's output contract.
type Answer struct {
	Text            string          `json:"answer"`
	ConfidenceLabel ConfidenceLabel `json:"confidence"`
	Confidence      float64         `json:"numeric_confidence"`
	Citations       []Citation      `json:"citations"`
	Language        Language        `json:"language"`
	NeedsReferral   bool            `json:"needs_referral"`
	Mode            AnswerMode      `json:"mode"`
	RetrievalMode   RetrievalMode   `json:"retrieval_mode"`
}

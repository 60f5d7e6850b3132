package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message es una entrada inmutable del log de conversación.
type Message struct {
	ID                 string    `json:"id"`
	Role               string    `json:"role"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"created_at"`
	RelatedFAQs        []FAQ     `json:"related_faqs,omitempty"`
	SuggestedQuestions []string  `json:"suggested_questions,omitempty"`
	ConfidenceScore    *float64  `json:"confidence_score,omitempty"`
}

// HistoryEntry es la forma en la que se envía el historial al backend.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest es el cuerpo de POST /api/chat.
type ChatRequest struct {
	Message             string         `json:"message"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
}

// ChatReply es la respuesta de POST /api/chat. Los campos opcionales son nil cuando faltan.
type ChatReply struct {
	Response           string   `json:"response"`
	RelatedFAQs        []FAQ    `json:"related_faqs,omitempty"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
}

// GuestSession es la respuesta de POST /api/auth/guest.
type GuestSession struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
}

// AuthResult es la respuesta de login/register.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}

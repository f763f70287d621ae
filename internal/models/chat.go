package models

import "time"

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a chat session's history.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatSession is the conversational state of one chatbot session.
// SystemPrompt is always rebuilt from Context, never edited directly.
type ChatSession struct {
	ID           string        `json:"id"`
	SystemPrompt string        `json:"system_prompt"`
	Context      string        `json:"context"`
	History      []ChatMessage `json:"history"`
	Messages     []ChatMessage `json:"messages"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// RecentHistory returns at most the last n history entries, oldest first.
func (s *ChatSession) RecentHistory(n int) []ChatMessage {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// CreateChatRequest is the JSON body for POST /api/chat/sessions.
type CreateChatRequest struct {
	Context string `json:"context" validate:"max=200000"`
}

// SendMessageRequest is the JSON body for POST /api/chat/sessions/{id}/messages.
type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=8000"`
}

// UpdateContextRequest is the JSON body for PUT /api/chat/sessions/{id}/context.
type UpdateContextRequest struct {
	Context string `json:"context" validate:"max=200000"`
}

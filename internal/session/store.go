// Package session keeps the state of one browser (UI) session: the cached
// document and the chatbot sessions created from it.
package session

import (
	"context"

	"github.com/ayush/research-content-generator/internal/chatbot"
	"github.com/ayush/research-content-generator/internal/models"
)

// Store is the per-UI-session state backend. Document returns nil, nil when
// nothing is cached.
type Store interface {
	Document(ctx context.Context, uiSessionID string) (*models.Document, error)
	SetDocument(ctx context.Context, uiSessionID string, doc *models.Document) error
	ClearDocument(ctx context.Context, uiSessionID string) error
	Chats(uiSessionID string) chatbot.Store
	Clear(ctx context.Context, uiSessionID string) error
}

func copyDocument(d *models.Document) *models.Document {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Metadata != nil {
		cp.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func copyChat(s *models.ChatSession) *models.ChatSession {
	cp := *s
	cp.History = append([]models.ChatMessage(nil), s.History...)
	cp.Messages = append([]models.ChatMessage(nil), s.Messages...)
	return &cp
}

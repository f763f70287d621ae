// Package chatbot answers follow-up questions about generated documents.
//
// Session state is never held here: every operation receives the Store of
// the caller's UI session explicitly.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/llm"
	"github.com/ayush/research-content-generator/internal/models"
)

// DefaultHistoryWindow is how many history entries (5 exchanges) are replayed per call.
const DefaultHistoryWindow = 10

// MsgSessionNotFound is the Reply error for unknown session ids.
const MsgSessionNotFound = "Session not found. Create session first."

// ErrStoreRequired is returned when an operation is called without a store.
var ErrStoreRequired = errors.New("chatbot: session store is required")

// Store holds the chat sessions of one UI session. Get returns nil, nil for
// unknown ids and must hand out copies, so a failed exchange leaves the
// stored session untouched.
type Store interface {
	Get(ctx context.Context, id string) (*models.ChatSession, error)
	Save(ctx context.Context, s *models.ChatSession) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// Config tunes the chat completion calls.
type Config struct {
	Model         string
	Temperature   float32
	MaxTokens     int
	HistoryWindow int
}

// Reply is the structured result of SendMessage.
type Reply struct {
	Success      bool   `json:"success"`
	Response     string `json:"response,omitempty"`
	Error        string `json:"error,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
}

type Service struct {
	llm llm.Completer
	cfg Config
	log *zap.Logger
	now func() time.Time
}

func NewService(completer llm.Completer, cfg Config, logger *zap.Logger) *Service {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &Service{llm: completer, cfg: cfg, log: logger.Named("chatbot"), now: time.Now}
}

// CreateSession starts (or restarts) session id with an empty history.
func (s *Service) CreateSession(ctx context.Context, store Store, id, chatContext string) error {
	if store == nil {
		return ErrStoreRequired
	}
	now := s.now()
	sess := &models.ChatSession{
		ID:           id,
		SystemPrompt: BuildSystemPrompt(chatContext),
		Context:      chatContext,
		History:      []models.ChatMessage{},
		Messages:     []models.ChatMessage{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save chat session %s: %w", id, err)
	}
	s.log.Info("chat session created", zap.String("session_id", id), zap.Int("context_len", len(chatContext)))
	return nil
}

// SendMessage answers text within session id. History is only extended
// after a successful completion.
func (s *Service) SendMessage(ctx context.Context, store Store, id, text string) Reply {
	if store == nil {
		return Reply{Success: false, Error: ErrStoreRequired.Error()}
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		s.log.Error("load chat session", zap.String("session_id", id), zap.Error(err))
		return Reply{Success: false, Error: err.Error(), SessionID: id}
	}
	if sess == nil {
		return Reply{Success: false, Error: MsgSessionNotFound}
	}

	var res llm.Result
	if r := panics.Try(func() {
		res = s.llm.Complete(ctx, s.request(sess, text))
	}); r != nil {
		s.log.Error("chat completion panicked", zap.String("session_id", id), zap.Any("panic", r.Value))
		return Reply{Success: false, Error: fmt.Sprint(r.Value), SessionID: id}
	}
	if !res.OK() {
		return Reply{Success: false, Error: res.Err.Error(), SessionID: id}
	}

	user := models.ChatMessage{Role: models.RoleUser, Content: text}
	assistant := models.ChatMessage{Role: models.RoleAssistant, Content: res.Text}
	sess.History = append(sess.History, user, assistant)
	sess.Messages = append(sess.Messages, user, assistant)
	sess.UpdatedAt = s.now()
	if err := store.Save(ctx, sess); err != nil {
		s.log.Error("save chat session", zap.String("session_id", id), zap.Error(err))
		return Reply{Success: false, Error: fmt.Sprintf("failed to save session: %v", err), SessionID: id}
	}

	return Reply{
		Success:      true,
		Response:     res.Text,
		SessionID:    id,
		MessageCount: len(sess.Messages),
	}
}

// request lays out the call: system prompt as the leading user turn, the
// recent history window, then the new message.
func (s *Service) request(sess *models.ChatSession, text string) llm.Request {
	recent := sess.RecentHistory(s.cfg.HistoryWindow)
	msgs := make([]llm.Message, 0, len(recent)+2)
	msgs = append(msgs, llm.Message{Role: models.RoleUser, Content: sess.SystemPrompt})
	for _, m := range recent {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: models.RoleUser, Content: text})
	return llm.Request{
		Model:       s.cfg.Model,
		Messages:    msgs,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
}

// UpdateContext replaces the context of session id and rebuilds its system
// prompt. It reports false for unknown ids.
func (s *Service) UpdateContext(ctx context.Context, store Store, id, chatContext string) (bool, error) {
	if store == nil {
		return false, ErrStoreRequired
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load chat session %s: %w", id, err)
	}
	if sess == nil {
		return false, nil
	}
	sess.Context = chatContext
	sess.SystemPrompt = BuildSystemPrompt(chatContext)
	sess.UpdatedAt = s.now()
	if err := store.Save(ctx, sess); err != nil {
		return false, fmt.Errorf("save chat session %s: %w", id, err)
	}
	return true, nil
}

// RefreshAll points every chat session of the store at a new context.
func (s *Service) RefreshAll(ctx context.Context, store Store, chatContext string) error {
	if store == nil {
		return ErrStoreRequired
	}
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list chat sessions: %w", err)
	}
	var errs []error
	for _, id := range ids {
		if _, err := s.UpdateContext(ctx, store, id, chatContext); err != nil {
			errs = append(errs, err)
		}
	}
	if len(ids) > 0 {
		s.log.Debug("chat contexts refreshed", zap.Int("sessions", len(ids)))
	}
	return errors.Join(errs...)
}

// Messages returns the display list of session id, empty when unknown.
func (s *Service) Messages(ctx context.Context, store Store, id string) ([]models.ChatMessage, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load chat session %s: %w", id, err)
	}
	if sess == nil || sess.Messages == nil {
		return []models.ChatMessage{}, nil
	}
	return sess.Messages, nil
}

// ClearSession removes session id; unknown ids are a no-op.
func (s *Service) ClearSession(ctx context.Context, store Store, id string) error {
	if store == nil {
		return ErrStoreRequired
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete chat session %s: %w", id, err)
	}
	return nil
}

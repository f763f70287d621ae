package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/chatbot"
	"github.com/ayush/research-content-generator/internal/models"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnexpected   = errors.New("unexpected error")
)

// User-facing messages for pipeline failures.
const (
	MsgInvalidInput = "Please fill in all fields"
	MsgPreparation  = "Failed to prepare request. Please try again."
	MsgGeneration   = "Failed to generate research. Please try again."
	MsgUnexpected   = "An unexpected error occurred. Please try again."
)

// UserMessage maps a Run error to the message shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return MsgInvalidInput
	case errors.Is(err, ErrPreparationFailed):
		return MsgPreparation
	case errors.Is(err, ErrGenerationFailed):
		return MsgGeneration
	default:
		return MsgUnexpected
	}
}

// SessionStore is the slice of UI session state the pipeline touches.
type SessionStore interface {
	Document(ctx context.Context, uiSessionID string) (*models.Document, error)
	SetDocument(ctx context.Context, uiSessionID string, doc *models.Document) error
	Chats(uiSessionID string) chatbot.Store
}

// ContextRefresher re-points existing chat sessions at new content.
type ContextRefresher interface {
	RefreshAll(ctx context.Context, store chatbot.Store, chatContext string) error
}

// Outcome is the result of a successful Run.
type Outcome struct {
	Document *models.Document `json:"document"`
	Cached   bool             `json:"cached"`
}

// Pipeline runs prompt engineering followed by research generation.
type Pipeline struct {
	engineer  *PromptEngineer
	generator *Generator
	sessions  SessionStore
	chats     ContextRefresher
	model     string
	log       *zap.Logger
	now       func() time.Time
}

func NewPipeline(engineer *PromptEngineer, generator *Generator, sessions SessionStore, chats ContextRefresher, model string, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		engineer:  engineer,
		generator: generator,
		sessions:  sessions,
		chats:     chats,
		model:     model,
		log:       logger.Named("pipeline"),
		now:       time.Now,
	}
}

// Run produces the document for input in the given UI session. A document
// already cached for the same input is returned without calling the model
// unless force is set. Panics are converted to ErrUnexpected.
func (p *Pipeline) Run(ctx context.Context, uiSessionID string, input models.UserInput, force bool) (*Outcome, error) {
	if !input.IsValid() {
		return nil, ErrInvalidInput
	}

	var (
		out     *Outcome
		err     error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		out, err = p.run(ctx, uiSessionID, input, force)
	})
	if r := catcher.Recovered(); r != nil {
		p.log.Error("pipeline panicked",
			zap.String("ui_session", uiSessionID),
			zap.Any("panic", r.Value),
			zap.ByteString("stack", r.Stack),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, r.Value)
	}
	return out, err
}

func (p *Pipeline) run(ctx context.Context, sid string, input models.UserInput, force bool) (*Outcome, error) {
	fingerprint := input.Fingerprint()
	log := p.log.With(zap.String("ui_session", sid), zap.String("fingerprint", fingerprint))

	if !force {
		cached, err := p.sessions.Document(ctx, sid)
		if err != nil {
			log.Warn("document cache lookup failed", zap.Error(err))
		} else if cached != nil && cached.Fingerprint == fingerprint {
			log.Info("serving cached document", zap.String("document_id", cached.ID))
			return &Outcome{Document: cached, Cached: true}, nil
		}
	}

	start := p.now()
	prompt, err := p.engineer.Engineer(ctx, input)
	if err != nil {
		log.Error("prompt engineering failed", zap.Error(err))
		return nil, err
	}

	content, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error("research generation failed", zap.Error(err))
		return nil, err
	}

	doc := &models.Document{
		ID:          uuid.NewString(),
		Title:       documentTitle(input),
		Content:     content,
		Metadata:    prompt.Metadata,
		Fingerprint: fingerprint,
		Model:       p.model,
		CreatedAt:   p.now(),
	}
	log.Info("document generated",
		zap.String("document_id", doc.ID),
		zap.Int("content_len", len(content)),
		zap.Duration("elapsed", p.now().Sub(start)),
	)

	if err := p.sessions.SetDocument(ctx, sid, doc); err != nil {
		log.Error("cache document", zap.Error(err))
	}
	if err := p.chats.RefreshAll(ctx, p.sessions.Chats(sid), doc.ChatContext()); err != nil {
		log.Error("refresh chat contexts", zap.Error(err))
	}
	return &Outcome{Document: doc}, nil
}

func documentTitle(input models.UserInput) string {
	return fmt.Sprintf("%s: %s", input.PaperFormat, models.Truncate(strings.TrimSpace(input.Topic), 20))
}

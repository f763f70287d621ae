// Package llm is the completion client boundary. Every call is soft-failing:
// errors are logged and returned inside Result, never raised to the caller.
package llm

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/models"
)

// ErrEmptyCompletion is returned when the endpoint answers without any choice.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Message is one turn sent to the completion endpoint.
type Message struct {
	Role    models.Role
	Content string
}

// Request describes a single chat-completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32 // zero leaves the provider default
	MaxTokens   int     // zero leaves the provider default
}

// Prompt builds a request carrying the whole prompt as one user message.
func Prompt(model, prompt string, maxTokens int) Request {
	return Request{
		Model:     model,
		Messages:  []Message{{Role: models.RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	}
}

// Result is the outcome of one completion call.
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool { return r.Err == nil }

func failed(err error) Result { return Result{Err: err} }

// Completer issues at most one completion call per Complete.
type Completer interface {
	Complete(ctx context.Context, req Request) Result
}

// TokenCounter estimates the prompt size of a request.
type TokenCounter interface {
	Count(model string, msgs []Message) (int, error)
}

// promptMeter logs prompt sizes; counting problems are reported once.
type promptMeter struct {
	counter TokenCounter
	log     *zap.Logger
	warn    sync.Once
}

func (m *promptMeter) measure(req Request) {
	if m.counter == nil {
		return
	}
	n, err := m.counter.Count(req.Model, req.Messages)
	if err != nil {
		m.warn.Do(func() {
			m.log.Warn("token counting unavailable", zap.Error(err))
		})
		return
	}
	m.log.Debug("completion request",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("prompt_tokens", n),
		zap.Int("max_tokens", req.MaxTokens),
	)
}

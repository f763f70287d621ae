package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/models"
)

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// OpenAIClient talks to any OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	meter  *promptMeter
	log    *zap.Logger
}

// NewOpenAIClient returns a client for baseURL. counter may be nil.
func NewOpenAIClient(apiKey, baseURL string, counter TokenCounter, logger *zap.Logger) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")

	logger = logger.Named("llm")
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		meter:  &promptMeter{counter: counter, log: logger},
		log:    logger,
	}
}

// Complete sends one non-streaming chat completion and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) Result {
	c.meter.measure(req)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		c.log.Error("completion failed", zap.String("model", req.Model), zap.Error(err))
		return failed(fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		c.log.Error("completion failed", zap.String("model", req.Model), zap.Error(ErrEmptyCompletion))
		return failed(ErrEmptyCompletion)
	}

	c.log.Debug("completion done",
		zap.String("model", req.Model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return Result{Text: resp.Choices[0].Message.Content}
}

func openAIRole(role models.Role) string {
	if role == models.RoleAssistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

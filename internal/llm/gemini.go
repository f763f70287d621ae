package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ayush/research-content-generator/internal/models"
)

// GeminiClient serves completions from the Gemini API.
type GeminiClient struct {
	client *genai.Client
	meter  *promptMeter
	log    *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, counter TokenCounter, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	logger = logger.Named("llm")
	return &GeminiClient{
		client: client,
		meter:  &promptMeter{counter: counter, log: logger},
		log:    logger,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) Result {
	c.meter.measure(req)

	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, geminiContents(req.Messages), cfg)
	if err != nil {
		c.log.Error("completion failed", zap.String("model", req.Model), zap.Error(err))
		return failed(fmt.Errorf("generate content: %w", err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		c.log.Error("completion failed", zap.String("model", req.Model), zap.Error(ErrEmptyCompletion))
		return failed(ErrEmptyCompletion)
	}
	return Result{Text: resp.Text()}
}

func geminiContents(msgs []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

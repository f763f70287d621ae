package research

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/llm"
	"github.com/ayush/research-content-generator/internal/models"
)

// ErrGenerationFailed means the research generation stage produced nothing usable.
var ErrGenerationFailed = errors.New("research generation failed")

var (
	thinkSpan   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkMarker = regexp.MustCompile(`</?think>`)
)

// RemoveThinkTags strips reasoning spans and any unmatched think markers,
// then trims surrounding whitespace. Applying it twice changes nothing.
func RemoveThinkTags(text string) string {
	for {
		cleaned := removeAll(thinkSpan, text)
		cleaned = thinkMarker.ReplaceAllString(cleaned, "")
		if cleaned == text {
			break
		}
		text = cleaned
	}
	return strings.TrimSpace(text)
}

// removeAll deletes matches of re until none are left, including ones
// formed by a previous deletion.
func removeAll(re *regexp.Regexp, text string) string {
	for {
		next := re.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

// Generator sends an engineered prompt and post-processes the answer.
type Generator struct {
	llm       llm.Completer
	model     string
	maxTokens int
	log       *zap.Logger
}

func NewGenerator(completer llm.Completer, model string, maxTokens int, logger *zap.Logger) *Generator {
	return &Generator{llm: completer, model: model, maxTokens: maxTokens, log: logger.Named("generator")}
}

// Generate returns the cleaned research content or ErrGenerationFailed.
func (g *Generator) Generate(ctx context.Context, prompt *models.EngineeredPrompt) (string, error) {
	if prompt == nil {
		return "", fmt.Errorf("%w: no prompt", ErrGenerationFailed)
	}

	var res llm.Result
	if r := panics.Try(func() {
		res = g.llm.Complete(ctx, llm.Prompt(g.model, prompt.FormattedPrompt, g.maxTokens))
	}); r != nil {
		g.log.Error("research generation panicked", zap.Any("panic", r.Value))
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, r.Value)
	}
	if !res.OK() {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, res.Err)
	}

	content := RemoveThinkTags(res.Text)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", ErrGenerationFailed)
	}
	if len(content) < len(res.Text) {
		g.log.Debug("reasoning stripped", zap.Int("raw_len", len(res.Text)), zap.Int("content_len", len(content)))
	}
	return content, nil
}

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/ayush/research-content-generator/internal/llm"
	"github.com/ayush/research-content-generator/internal/models"
)

// ErrPreparationFailed means the prompt engineering stage produced nothing usable.
var ErrPreparationFailed = errors.New("prompt preparation failed")

const promptDirectives = "IMPORTANT:\n" +
	"1. All math formulas in the research content must use LaTeX syntax.\n" +
	"   - Inline math: $...$\n" +
	"   - Display math: $$...$$\n" +
	"2. Do not convert formulas to Unicode symbols.\n" +
	"3. Ensure the output is clean, Markdown-ready, and ready to render in PDFs.\n" +
	"4. Provide detailed explanations, equations, and properly formatted LaTeX where applicable.\n\n" +
	"The prompt you create should guide an AI to produce a final output that can be directly converted " +
	"to PDF with proper LaTeX rendering."

// EngineeringInstruction is the full stage-one prompt for input.
func EngineeringInstruction(input models.UserInput) string {
	var b strings.Builder
	b.WriteString("Given the research goal and constraints below, generate an optimized, detailed prompt ")
	b.WriteString("that will guide another advanced AI agent to produce high-quality research content.\n")
	fmt.Fprintf(&b, "Paper Format: %s\n", input.PaperFormat)
	fmt.Fprintf(&b, "Writing Style: %s\n", input.WritingStyle)
	fmt.Fprintf(&b, "Length: %s\n", input.Length)
	fmt.Fprintf(&b, "Topic or Query: %s\n\n", input.Topic)
	b.WriteString(promptDirectives)
	return b.String()
}

// PromptEngineer turns a form submission into a detailed generation prompt.
type PromptEngineer struct {
	llm       llm.Completer
	model     string
	maxTokens int
	log       *zap.Logger
}

func NewPromptEngineer(completer llm.Completer, model string, maxTokens int, logger *zap.Logger) *PromptEngineer {
	return &PromptEngineer{llm: completer, model: model, maxTokens: maxTokens, log: logger.Named("prompt")}
}

// Engineer returns the engineered prompt, or ErrPreparationFailed when the
// completion fails, comes back empty, or panics.
func (e *PromptEngineer) Engineer(ctx context.Context, input models.UserInput) (*models.EngineeredPrompt, error) {
	var res llm.Result
	if r := panics.Try(func() {
		res = e.llm.Complete(ctx, llm.Prompt(e.model, EngineeringInstruction(input), e.maxTokens))
	}); r != nil {
		e.log.Error("prompt engineering panicked", zap.Any("panic", r.Value))
		return nil, fmt.Errorf("%w: %v", ErrPreparationFailed, r.Value)
	}
	if !res.OK() {
		return nil, fmt.Errorf("%w: %v", ErrPreparationFailed, res.Err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrPreparationFailed)
	}

	e.log.Debug("prompt engineered", zap.Int("prompt_len", len(res.Text)))
	return &models.EngineeredPrompt{
		OriginalTopic:   input.Topic,
		FormattedPrompt: res.Text,
		Metadata:        input.Metadata(),
	}, nil
}

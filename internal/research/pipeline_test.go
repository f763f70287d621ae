package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ayush/research-content-generator/internal/chatbot"
	"github.com/ayush/research-content-generator/internal/llm"
	"github.com/ayush/research-content-generator/internal/models"
	"github.com/ayush/research-content-generator/internal/session"
)

type testPipeline struct {
	*Pipeline
	llm      *scriptedLLM
	sessions *session.MemoryStore
	chat     *chatbot.Service
}

func newTestPipeline(t *testing.T, completer *scriptedLLM) *testPipeline {
	t.Helper()
	log := zaptest.NewLogger(t)
	sessions := session.NewMemoryStore(time.Hour)
	chat := chatbot.NewService(&scriptedLLM{}, chatbot.Config{Model: "chat"}, log)
	p := NewPipeline(
		NewPromptEngineer(completer, "pipe-model", 1000, log),
		NewGenerator(completer, "pipe-model", 1000, log),
		sessions, chat, "pipe-model", log,
	)
	return &testPipeline{Pipeline: p, llm: completer, sessions: sessions, chat: chat}
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	tp := newTestPipeline(t, script("PROMPT_A", "<think>scratch</think>Final text."))

	out, err := tp.Run(ctx, "ui-1", validInput(), false)
	require.NoError(t, err)
	require.NotNil(t, out.Document)
	assert.False(t, out.Cached)
	assert.Equal(t, "Final text.", out.Document.Content)
	assert.Equal(t, "Essay: Quantum error correc...", out.Document.Title)
	assert.Equal(t, validInput().Metadata(), out.Document.Metadata)
	assert.Equal(t, validInput().Fingerprint(), out.Document.Fingerprint)
	assert.Equal(t, "pipe-model", out.Document.Model)

	require.Len(t, tp.llm.requests, 2)
	assert.Equal(t, EngineeringInstruction(validInput()), tp.llm.requests[0].Messages[0].Content)
	assert.Equal(t, "PROMPT_A", tp.llm.requests[1].Messages[0].Content)

	cached, err := tp.sessions.Document(ctx, "ui-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, out.Document.ID, cached.ID)
}

func TestPipelinePreparationFailureSkipsGeneration(t *testing.T) {
	ctx := context.Background()
	tp := newTestPipeline(t, &scriptedLLM{results: []llm.Result{{Err: assert.AnError}}})

	out, err := tp.Run(ctx, "ui-1", validInput(), false)
	assert.Nil(t, out)
	require.ErrorIs(t, err, ErrPreparationFailed)
	assert.Equal(t, MsgPreparation, UserMessage(err))
	assert.Len(t, tp.llm.requests, 1)

	doc, err := tp.sessions.Document(ctx, "ui-1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestPipelineGenerationFailure(t *testing.T) {
	tp := newTestPipeline(t, script("PROMPT_A", "<think>only this</think>"))

	_, err := tp.Run(context.Background(), "ui-1", validInput(), false)
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, MsgGeneration, UserMessage(err))
	assert.Len(t, tp.llm.requests, 2)
}

func TestPipelineInvalidInputMakesNoCalls(t *testing.T) {
	base := validInput()
	invalid := []models.UserInput{
		{PaperFormat: base.PaperFormat, WritingStyle: base.WritingStyle, Length: base.Length, Topic: ""},
		{PaperFormat: base.PaperFormat, WritingStyle: base.WritingStyle, Length: base.Length, Topic: " \t\n"},
		{PaperFormat: "Poem", WritingStyle: base.WritingStyle, Length: base.Length, Topic: base.Topic},
		{PaperFormat: base.PaperFormat, WritingStyle: "Shouty", Length: base.Length, Topic: base.Topic},
		{PaperFormat: base.PaperFormat, WritingStyle: base.WritingStyle, Length: "Huge", Topic: base.Topic},
		{},
	}
	for _, in := range invalid {
		tp := newTestPipeline(t, script("PROMPT_A", "text"))
		_, err := tp.Run(context.Background(), "ui-1", in, false)
		require.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
		assert.Equal(t, MsgInvalidInput, UserMessage(err))
		assert.Empty(t, tp.llm.requests, "%+v", in)
	}
}

func TestPipelineCachesPerInput(t *testing.T) {
	ctx := context.Background()
	tp := newTestPipeline(t, script("P1", "first", "P2", "second", "P3", "third"))

	first, err := tp.Run(ctx, "ui-1", validInput(), false)
	require.NoError(t, err)

	again, err := tp.Run(ctx, "ui-1", validInput(), false)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, first.Document.ID, again.Document.ID)
	assert.Len(t, tp.llm.requests, 2)

	forced, err := tp.Run(ctx, "ui-1", validInput(), true)
	require.NoError(t, err)
	assert.False(t, forced.Cached)
	assert.Equal(t, "second", forced.Document.Content)
	assert.Len(t, tp.llm.requests, 4)

	changed := validInput()
	changed.Length = models.LengthLong
	other, err := tp.Run(ctx, "ui-1", changed, false)
	require.NoError(t, err)
	assert.False(t, other.Cached)
	assert.Equal(t, "third", other.Document.Content)

	// Caches are per UI session.
	tp.llm.results = []llm.Result{{Text: "P4"}, {Text: "fourth"}}
	elsewhere, err := tp.Run(ctx, "ui-2", validInput(), false)
	require.NoError(t, err)
	assert.False(t, elsewhere.Cached)
}

func TestPipelineRefreshesChatContext(t *testing.T) {
	ctx := context.Background()
	tp := newTestPipeline(t, script("PROMPT_A", "Final text."))
	chats := tp.sessions.Chats("ui-1")
	require.NoError(t, tp.chat.CreateSession(ctx, chats, "c1", ""))

	out, err := tp.Run(ctx, "ui-1", validInput(), false)
	require.NoError(t, err)

	sess, err := chats.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, out.Document.ChatContext(), sess.Context)
	assert.Contains(t, sess.SystemPrompt, "GENERATED CONTENT:\nFinal text.")
	assert.Contains(t, sess.SystemPrompt, "Paper Format: Essay")
}

type panickingRefresher struct{}

func (panickingRefresher) RefreshAll(context.Context, chatbot.Store, string) error {
	panic("refresh exploded")
}

func TestPipelineRecoversPanics(t *testing.T) {
	log := zaptest.NewLogger(t)
	completer := script("PROMPT_A", "text")
	p := NewPipeline(
		NewPromptEngineer(completer, "m", 0, log),
		NewGenerator(completer, "m", 0, log),
		session.NewMemoryStore(time.Hour), panickingRefresher{}, "m", log,
	)

	out, err := p.Run(context.Background(), "ui-1", validInput(), false)
	assert.Nil(t, out)
	require.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, MsgUnexpected, UserMessage(err))
}

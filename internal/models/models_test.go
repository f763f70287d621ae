package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserInputIsValid(t *testing.T) {
	ok := UserInput{PaperFormat: FormatCaseStudy, WritingStyle: StyleTechnical, Length: LengthVeryLong, Topic: "LLM agents"}
	assert.True(t, ok.IsValid())

	blank := ok
	blank.Topic = "   "
	assert.False(t, blank.IsValid())

	badFormat := ok
	badFormat.PaperFormat = "Sonnet"
	assert.False(t, badFormat.IsValid())

	badLength := ok
	badLength.Length = "Short"
	assert.False(t, badLength.IsValid())
}

func TestFingerprint(t *testing.T) {
	a := UserInput{PaperFormat: FormatEssay, WritingStyle: StyleAcademic, Length: LengthShort, Topic: "Topic"}
	b := a
	b.Topic = "  Topic\n"
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)

	c := a
	c.Length = LengthMedium
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestDocumentChatContext(t *testing.T) {
	in := UserInput{PaperFormat: FormatBlogPost, WritingStyle: StyleConversational, Length: LengthLong, Topic: "Rust vs Go"}
	doc := &Document{Content: "# Rust vs Go\nBody", Metadata: in.Metadata()}

	want := "The user generated the following document with the Research Content Generator.\n" +
		"Paper Format: Blog Post\n" +
		"Writing Style: Conversational\n" +
		"Length: Long (2000 words)\n" +
		"Topic: Rust vs Go\n" +
		"\nGENERATED CONTENT:\n" +
		"# Rust vs Go\nBody"
	assert.Equal(t, want, doc.ChatContext())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 20))
	assert.Equal(t, "exactly twenty chars", Truncate("exactly twenty chars", 20))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
	assert.Equal(t, "héllo...", Truncate("héllo wörld", 5))
}

func TestRecentHistory(t *testing.T) {
	s := &ChatSession{}
	for i := 0; i < 6; i++ {
		s.History = append(s.History, ChatMessage{Role: RoleUser, Content: string(rune('a' + i))})
	}
	got := s.RecentHistory(4)
	assert.Len(t, got, 4)
	assert.Equal(t, "c", got[0].Content)
	assert.Len(t, s.RecentHistory(10), 6)
	assert.Len(t, s.RecentHistory(0), 6)
}

func TestCreateRequestInput(t *testing.T) {
	req := CreateRequest{PaperFormat: "White Paper", WritingStyle: "Persuasive", Length: "Medium (1000 words)", Topic: "Edge AI"}
	in := req.Input()
	assert.True(t, in.IsValid())
	assert.Equal(t, FormatWhitePaper, in.PaperFormat)
	assert.Equal(t, map[string]string{
		"paper_format":   "White Paper",
		"writing_style":  "Persuasive",
		"length":         "Medium (1000 words)",
		"original_topic": "Edge AI",
	}, in.Metadata())
}

func TestAllOptions(t *testing.T) {
	opts := AllOptions()
	assert.Len(t, opts.PaperFormats, 7)
	assert.Len(t, opts.WritingStyles, 7)
	assert.Len(t, opts.Lengths, 4)
	for _, f := range opts.PaperFormats {
		assert.True(t, f.Valid(), f)
	}
}

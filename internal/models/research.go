package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// PaperFormat is the document shape requested by the user.
type PaperFormat string

const (
	FormatResearchPaper    PaperFormat = "Research Paper"
	FormatEssay            PaperFormat = "Essay"
	FormatBlogPost         PaperFormat = "Blog Post"
	FormatTechnicalReport  PaperFormat = "Technical Report"
	FormatLiteratureReview PaperFormat = "Literature Review"
	FormatCaseStudy        PaperFormat = "Case Study"
	FormatWhitePaper       PaperFormat = "White Paper"
)

// WritingStyle is the register the generated document is written in.
type WritingStyle string

const (
	StyleAcademic       WritingStyle = "Academic"
	StyleProfessional   WritingStyle = "Professional"
	StyleConversational WritingStyle = "Conversational"
	StyleTechnical      WritingStyle = "Technical"
	StylePersuasive     WritingStyle = "Persuasive"
	StyleAnalytical     WritingStyle = "Analytical"
	StyleDescriptive    WritingStyle = "Descriptive"
)

// Length is the target size of the generated document.
type Length string

const (
	LengthShort    Length = "Short (500 words)"
	LengthMedium   Length = "Medium (1000 words)"
	LengthLong     Length = "Long (2000 words)"
	LengthVeryLong Length = "Very Long (3000+ words)"
)

// PaperFormats returns the closed set of formats in display order.
func PaperFormats() []PaperFormat {
	return []PaperFormat{
		FormatResearchPaper, FormatEssay, FormatBlogPost, FormatTechnicalReport,
		FormatLiteratureReview, FormatCaseStudy, FormatWhitePaper,
	}
}

// WritingStyles returns the closed set of styles in display order.
func WritingStyles() []WritingStyle {
	return []WritingStyle{
		StyleAcademic, StyleProfessional, StyleConversational, StyleTechnical,
		StylePersuasive, StyleAnalytical, StyleDescriptive,
	}
}

// Lengths returns the closed set of lengths in display order.
func Lengths() []Length {
	return []Length{LengthShort, LengthMedium, LengthLong, LengthVeryLong}
}

func (f PaperFormat) Valid() bool {
	switch f {
	case FormatResearchPaper, FormatEssay, FormatBlogPost, FormatTechnicalReport,
		FormatLiteratureReview, FormatCaseStudy, FormatWhitePaper:
		return true
	}
	return false
}

func (s WritingStyle) Valid() bool {
	switch s {
	case StyleAcademic, StyleProfessional, StyleConversational, StyleTechnical,
		StylePersuasive, StyleAnalytical, StyleDescriptive:
		return true
	}
	return false
}

func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong, LengthVeryLong:
		return true
	}
	return false
}

// UserInput is one submission of the research form.
type UserInput struct {
	PaperFormat  PaperFormat  `json:"paper_format"`
	WritingStyle WritingStyle `json:"writing_style"`
	Length       Length       `json:"length"`
	Topic        string       `json:"topic"`
}

// IsValid reports whether the topic is non-blank and every option is a
// member of its closed set.
func (u UserInput) IsValid() bool {
	return strings.TrimSpace(u.Topic) != "" &&
		u.PaperFormat.Valid() &&
		u.WritingStyle.Valid() &&
		u.Length.Valid()
}

// Metadata returns the input fields keyed the way they are echoed back to clients.
func (u UserInput) Metadata() map[string]string {
	return map[string]string{
		"paper_format":   string(u.PaperFormat),
		"writing_style":  string(u.WritingStyle),
		"length":         string(u.Length),
		"original_topic": u.Topic,
	}
}

// Fingerprint identifies an input for the per-session document cache.
func (u UserInput) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s",
		u.PaperFormat, u.WritingStyle, u.Length, strings.TrimSpace(u.Topic))))
	return hex.EncodeToString(sum[:8])
}

// EngineeredPrompt is the output of the prompt engineering stage.
type EngineeredPrompt struct {
	OriginalTopic   string            `json:"original_topic"`
	FormattedPrompt string            `json:"formatted_prompt"`
	Metadata        map[string]string `json:"metadata"`
}

func (p *EngineeredPrompt) String() string { return p.FormattedPrompt }

// Document is a generated research document cached for one UI session.
type Document struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata"`
	Fingerprint string            `json:"fingerprint"`
	Model       string            `json:"model"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ChatContext is the static context block plus the generated text, handed to
// the chatbot so it can answer questions about this document.
func (d *Document) ChatContext() string {
	var b strings.Builder
	b.WriteString("The user generated the following document with the Research Content Generator.\n")
	fmt.Fprintf(&b, "Paper Format: %s\n", d.Metadata["paper_format"])
	fmt.Fprintf(&b, "Writing Style: %s\n", d.Metadata["writing_style"])
	fmt.Fprintf(&b, "Length: %s\n", d.Metadata["length"])
	fmt.Fprintf(&b, "Topic: %s\n", d.Metadata["original_topic"])
	b.WriteString("\nGENERATED CONTENT:\n")
	b.WriteString(d.Content)
	return b.String()
}

// Truncate shortens text to max runes, adding an ellipsis when cut.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// CreateRequest is the JSON body for POST /api/research.
type CreateRequest struct {
	PaperFormat  string `json:"paper_format"  validate:"required"`
	WritingStyle string `json:"writing_style" validate:"required"`
	Length       string `json:"length"        validate:"required"`
	Topic        string `json:"topic"         validate:"required,max=4000"`
	Regenerate   bool   `json:"regenerate"`
}

// Input converts the request into a UserInput. Membership of the closed
// option sets is checked later by UserInput.IsValid.
func (r CreateRequest) Input() UserInput {
	return UserInput{
		PaperFormat:  PaperFormat(r.PaperFormat),
		WritingStyle: WritingStyle(r.WritingStyle),
		Length:       Length(r.Length),
		Topic:        r.Topic,
	}
}

// Options lists every closed option set for form rendering.
type Options struct {
	PaperFormats  []PaperFormat  `json:"paper_formats"`
	WritingStyles []WritingStyle `json:"writing_styles"`
	Lengths       []Length       `json:"lengths"`
}

func AllOptions() Options {
	return Options{PaperFormats: PaperFormats(), WritingStyles: WritingStyles(), Lengths: Lengths()}
}

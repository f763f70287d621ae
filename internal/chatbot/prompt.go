package chatbot

import (
	"strings"

	"github.com/ayush/research-content-generator/internal/models"
)

// BuildSystemPrompt returns the chatbot instructions for chatContext. It is a
// pure function: the same context always yields the same prompt.
func BuildSystemPrompt(chatContext string) string {
	formats := make([]string, 0, len(models.PaperFormats()))
	for _, f := range models.PaperFormats() {
		formats = append(formats, plural(strings.ToLower(string(f))))
	}
	styles := make([]string, 0, len(models.WritingStyles()))
	for _, s := range models.WritingStyles() {
		styles = append(styles, string(s))
	}

	var b strings.Builder
	b.WriteString("You are Research Assistant for the Research Content Generator application.\n\n")
	b.WriteString("You help users understand their generated ")
	b.WriteString(strings.Join(formats[:len(formats)-1], ", "))
	b.WriteString(", and " + formats[len(formats)-1] + ".\n\n")
	b.WriteString("Your role:\n")
	b.WriteString("- Answer questions about the user's generated content\n")
	b.WriteString("- Explain writing styles used (" + strings.Join(styles, ", ") + ")\n")
	b.WriteString("- Help clarify content topics and structure\n")
	b.WriteString("- Provide suggestions for improvement or revision\n")
	b.WriteString("- Maintain context about all previous conversations\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- Provide clear, concise answers\n")
	b.WriteString("- Reference specific parts of the content when relevant\n")
	b.WriteString("- Maintain a professional and helpful tone\n")
	b.WriteString("- Remember the conversation history")

	if chatContext != "" {
		b.WriteString("\n\nCONTEXT ABOUT USER'S CONTENT:\n")
		b.WriteString(chatContext)
	}
	return b.String()
}

func plural(noun string) string {
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}

package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<article>
%s</article>
</body>
</html>
`

// HTMLRenderer converts Markdown into a standalone HTML document.
type HTMLRenderer struct {
	md goldmark.Markdown
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render normalizes markdown and wraps the converted body in a page titled title.
func (r *HTMLRenderer) Render(title, markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(NormalizeMarkdown(markdown)), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	var page bytes.Buffer
	fmt.Fprintf(&page, htmlPage, html.EscapeString(title), body.String())
	return page.Bytes(), nil
}

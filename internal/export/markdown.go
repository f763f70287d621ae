// Package export turns generated Markdown into downloadable files.
package export

import (
	"regexp"
	"strings"
)

var (
	headingNoSpace = regexp.MustCompile(`^(#{1,6})([^\s#])`)
	bulletLine     = regexp.MustCompile(`^( *)([-*+]\s+.*)$`)
	fenceLine      = regexp.MustCompile("^\\s*(```|~~~)")
)

// NormalizeMarkdown tidies model output for rendering: headings get a space
// after the hashes and a blank line before them, nested bullets are indented
// two spaces per level. Code fences and $$ math blocks are left alone.
func NormalizeMarkdown(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))

	var (
		inFence bool
		fence   string
		inMath  bool
		indents []int
	)
	for _, line := range lines {
		if m := fenceLine.FindStringSubmatch(line); m != nil && !inMath {
			switch {
			case !inFence:
				inFence, fence = true, m[1]
			case m[1] == fence:
				inFence = false
			}
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if strings.Count(line, "$$")%2 == 1 {
			inMath = !inMath
			out = append(out, line)
			continue
		}
		if inMath {
			out = append(out, line)
			continue
		}

		if strings.HasPrefix(line, "#") {
			line = headingNoSpace.ReplaceAllString(line, "$1 $2")
			if isHeading(line) {
				if n := len(out); n > 0 && strings.TrimSpace(out[n-1]) != "" {
					out = append(out, "")
				}
				indents = indents[:0]
				out = append(out, line)
				continue
			}
		}

		line = strings.ReplaceAll(line, "\t", "    ")
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			level := nestLevel(&indents, len(m[1]))
			line = strings.Repeat("  ", level) + m[2]
		} else if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, " ") {
			indents = indents[:0]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func isHeading(line string) bool {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	return i >= 1 && i <= 6 && (i == len(line) || line[i] == ' ')
}

// nestLevel tracks the indentation of open bullets and returns the depth
// of a bullet indented by width.
func nestLevel(indents *[]int, width int) int {
	stack := *indents
	for len(stack) > 0 && stack[len(stack)-1] > width {
		stack = stack[:len(stack)-1]
	}
	if len(stack) == 0 || stack[len(stack)-1] < width {
		stack = append(stack, width)
	}
	*indents = stack
	return len(stack) - 1
}

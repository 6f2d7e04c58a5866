package format

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var orderedItem = regexp.MustCompile(`^\d+\.\s`)

// MarkdownToHTML renders answer or citation Markdown. Links open in a new tab.
func MarkdownToHTML(text string) string {
	text = normalizeMarkdownLists(text)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return string(markdown.ToHTML([]byte(text), p, renderer))
}

// MarkdownLinesToHTML renders each line on its own so that grouped citation
// lines stay separate paragraphs.
func MarkdownLinesToHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return MarkdownToHTML(strings.Join(strings.Split(text, "\n"), "\n\n"))
}

func isListItem(line string) bool {
	return strings.HasPrefix(line, "- ") ||
		strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "+ ") ||
		orderedItem.MatchString(line)
}

// normalizeMarkdownLists ensures list items have proper spacing for markdown parsing.
// Markdown requires a blank line before lists, but LLMs often forget this.
func normalizeMarkdownLists(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		if i > 0 && isListItem(strings.TrimSpace(line)) {
			prev := strings.TrimSpace(lines[i-1])
			if prev != "" && !isListItem(prev) {
				result = append(result, "")
			}
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

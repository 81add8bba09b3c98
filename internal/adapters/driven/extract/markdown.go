package extract

import (
	"regexp"
	"strings"
)

// Markdown strips markup from Markdown files.
type Markdown struct{}

// Name returns the format name.
func (Markdown) Name() string { return "markdown" }

// Extensions returns the extensions handled.
func (Markdown) Extensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// Extract returns the prose of a Markdown document.
func (Markdown) Extract(data []byte) (string, error) {
	text, err := decodeText(data)
	if err != nil {
		return "", err
	}
	return stripMarkdown(text), nil
}

var (
	mdCodeFence   = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode  = regexp.MustCompile("`([^`]+)`")
	mdImage       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis    = regexp.MustCompile(`(?m)(^|[^\w])(\*\*|__|\*|_)([^*_\n]+?)(\*\*|__|\*|_)`)
	mdBlockquote  = regexp.MustCompile(`(?m)^>\s?`)
	mdRule        = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	mdBullet      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumbered    = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdFrontMatter = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting. Inline code keeps its
// text since identifiers are often what a reader searches for.
func stripMarkdown(content string) string {
	content = mdFrontMatter.ReplaceAllString(content, "")
	content = mdCodeFence.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdRule.ReplaceAllString(content, "")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "${1}${3}")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdBullet.ReplaceAllString(content, "")
	content = mdNumbered.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

package blogservice

import (
	"regexp"
	"strings"
)

var scriptTagRX = regexp.MustCompile(`(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`)

// sanitizeMarkdown drops script blocks from a Markdown body and trims surrounding whitespace.
func sanitizeMarkdown(markdown string) string {
	return strings.TrimSpace(scriptTagRX.ReplaceAllString(markdown, ""))
}

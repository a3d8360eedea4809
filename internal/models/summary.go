package models

import (
	"regexp"
	"strings"
)

var summaryRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?m)^#+\s+`), ""},
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.*?)__`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`_(.*?)_`), "$1"},
	{regexp.MustCompile(`\s+`), " "},
}

// Summarize turns markdown into a plain-text excerpt of at most length
// runes, followed by "..." when the text had to be cut.
func Summarize(content string, length int) string {
	if content == "" {
		return ""
	}
	if length <= 0 {
		length = DefaultSummaryLength
	}
	text := content
	for _, rule := range summaryRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= length {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:length])) + "..."
}

// Package markdown turns stored article bodies into HTML for the read path.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML. Implementations must be pure.
type Renderer interface {
	Render(source string) (string, error)
}

// GFMRenderer renders GitHub flavoured markdown, turns soft line breaks
// into <br> and sanitises the result. It is safe for concurrent use.
type GFMRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *GFMRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	policy.AllowAttrs("checked", "disabled", "type").OnElements("input")

	return &GFMRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
	}
}

func (r *GFMRenderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// Package markdown renders document bodies to HTML for artifact embedding.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// Render converts a Markdown body (frontmatter already removed) to HTML.
func Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

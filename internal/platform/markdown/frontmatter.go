package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---\n"

// SplitFrontmatter decodes the leading yaml block into meta (when non-nil)
// and returns the remaining body. Content without frontmatter is all body.
func SplitFrontmatter(content string, meta any) (string, bool, error) {
	if !strings.HasPrefix(content, fence) {
		return content, false, nil
	}
	rest := strings.TrimPrefix(content, fence)
	idx := strings.Index(rest, "\n"+fence)
	if idx < 0 {
		return "", false, fmt.Errorf("invalid frontmatter: missing closing fence")
	}
	raw := rest[:idx]
	body := rest[idx+len("\n"+fence):]
	if meta != nil {
		if err := yaml.Unmarshal([]byte(raw), meta); err != nil {
			return "", false, fmt.Errorf("unmarshal frontmatter: %w", err)
		}
	}
	return body, true, nil
}

// RenderFrontmatter encodes meta (a struct keeps field order) ahead of body.
func RenderFrontmatter(meta any, body string) (string, error) {
	buf := bytes.Buffer{}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	buf.WriteString(fence)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf.WriteString(fence)
	if !strings.HasPrefix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(body)
	return buf.String(), nil
}

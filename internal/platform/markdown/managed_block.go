package markdown

import "strings"

// Block is a region of a note owned by pomotrack and rewritten on every
// export. Text outside the markers belongs to the user.
type Block struct {
	Start string
	End   string
}

func (b Block) render(generated string) string {
	return b.Start + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.End
}

// Replace swaps the block's content in body, appending the block when the
// markers are absent or out of order.
func (b Block) Replace(body, generated string) string {
	start := strings.Index(body, b.Start)
	end := strings.Index(body, b.End)
	if start >= 0 && end > start {
		return body[:start] + b.render(generated) + body[end+len(b.End):]
	}
	if strings.TrimSpace(body) == "" {
		return b.render(generated) + "\n"
	}
	sep := "\n\n"
	if strings.HasSuffix(body, "\n") {
		sep = "\n"
	}
	return body + sep + b.render(generated) + "\n"
}

package markdown_test

import (
	"strings"
	"testing"

	"pomotrack/internal/platform/markdown"
)

type meta struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	TimeSpent int    `yaml:"time_spent_seconds"`
}

func TestRenderAndSplitFrontmatter(t *testing.T) {
	t.Parallel()
	rendered, err := markdown.RenderFrontmatter(meta{ID: "t-1", Title: "Write report", TimeSpent: 600}, "# Write report\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(rendered, "---\nid: t-1\ntitle: Write report\n") {
		t.Fatalf("expected ordered keys, got %q", rendered)
	}
	var decoded meta
	body, ok, err := markdown.SplitFrontmatter(rendered, &decoded)
	if err != nil || !ok {
		t.Fatalf("split: ok=%t err=%v", ok, err)
	}
	if decoded.TimeSpent != 600 || decoded.ID != "t-1" {
		t.Fatalf("unexpected meta %+v", decoded)
	}
	if body != "\n# Write report\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSplitFrontmatterWithoutFence(t *testing.T) {
	t.Parallel()
	body, ok, err := markdown.SplitFrontmatter("plain notes", nil)
	if err != nil || ok || body != "plain notes" {
		t.Fatalf("expected plain body, got %q ok=%t err=%v", body, ok, err)
	}
	if _, _, err := markdown.SplitFrontmatter("---\nid: x\n", nil); err == nil {
		t.Fatalf("expected missing fence error")
	}
}

func TestBlockReplace(t *testing.T) {
	t.Parallel()
	block := markdown.Block{Start: "<!-- s -->", End: "<!-- e -->"}
	got := block.Replace("", "one")
	if got != "<!-- s -->\none\n<!-- e -->\n" {
		t.Fatalf("unexpected empty-body render %q", got)
	}
	got = block.Replace("notes\n", "one")
	if got != "notes\n\n<!-- s -->\none\n<!-- e -->\n" {
		t.Fatalf("unexpected append %q", got)
	}
	got = block.Replace("keep\n<!-- s -->\nold\n<!-- e -->\ntail\n", "new")
	if got != "keep\n<!-- s -->\nnew\n<!-- e -->\ntail\n" {
		t.Fatalf("unexpected replace %q", got)
	}
}

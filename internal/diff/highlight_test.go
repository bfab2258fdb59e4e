package diff

import (
	"testing"

	"github.com/sprite-ai/adaptsim/internal/model"
)

func TestHighlightLines(t *testing.T) {
	lines := []string{
		"package main",
		"",
		"func main() {",
		`	fmt.Println("hello")`,
		"}",
	}

	highlighted := NewHighlighter("dracula").Lines("main.go", lines)

	if len(highlighted) != len(lines) {
		t.Fatalf("expected %d highlighted lines, got %d", len(lines), len(highlighted))
	}
	if len(highlighted[0]) == 0 {
		t.Error("expected tokens in first line")
	}
	for i := range lines {
		if highlighted[i].Plain() != lines[i] {
			t.Errorf("line %d: plain text mismatch: %q", i, highlighted[i].Plain())
		}
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	lines := []string{"some content", "more content"}
	highlighted := NewHighlighter("no-such-style").Lines("unknown.xyz123", lines)

	if len(highlighted) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(highlighted))
	}
	if highlighted[0].Plain() != "some content" {
		t.Errorf("expected plain passthrough, got %q", highlighted[0].Plain())
	}
}

func TestHighlightAnchor(t *testing.T) {
	a := model.Anchor{File: "dates.go", Line: 5, Snippet: []string{"func Format() {}", "var x = 1"}}
	got := NewHighlighter("dracula").Anchor(a)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[1].Plain() != "var x = 1" {
		t.Errorf("unexpected text %q", got[1].Plain())
	}
}

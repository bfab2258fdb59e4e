package diff

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/sprite-ai/adaptsim/internal/model"
)

// Token is a run of text sharing one color.
type Token struct {
	Text  string
	Color string // hex color, empty for the default foreground
}

// Line is one highlighted source line.
type Line []Token

// Plain returns the text of the line without colors.
func (l Line) Plain() string {
	var b strings.Builder
	for _, t := range l {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Highlighter colors snippets with a chroma style.
type Highlighter struct {
	style *chroma.Style
}

// NewHighlighter returns a highlighter for the named chroma style, falling
// back to chroma's default when the name is unknown.
func NewHighlighter(styleName string) *Highlighter {
	st := styles.Get(styleName)
	if st == nil {
		st = styles.Fallback
	}
	return &Highlighter{style: st}
}

// Anchor highlights the snippet of an anchor using its file name to pick a
// lexer.
func (h *Highlighter) Anchor(a model.Anchor) []Line {
	return h.Lines(a.File, a.Snippet)
}

// Lines returns exactly one highlighted line per input line. Unknown file
// types come back uncolored.
func (h *Highlighter) Lines(filename string, lines []string) []Line {
	lexer := lexerFor(filename)
	if lexer == nil {
		return plain(lines)
	}
	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return plain(lines)
	}

	out := make([]Line, 0, len(lines))
	var cur Line
	for _, tok := range it.Tokens() {
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				out = append(out, cur)
				cur = nil
			}
			if part != "" {
				cur = append(cur, Token{Text: part, Color: h.color(tok.Type)})
			}
		}
	}
	out = append(out, cur)

	// Lexers may add or drop a trailing newline.
	for len(out) < len(lines) {
		out = append(out, Line{})
	}
	return out[:len(lines)]
}

func (h *Highlighter) color(tt chroma.TokenType) string {
	if e := h.style.Get(tt); e.Colour.IsSet() {
		return e.Colour.String()
	}
	return ""
}

func plain(lines []string) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{{Text: l}}
	}
	return out
}

func lexerFor(filename string) chroma.Lexer {
	l := lexers.Match(filename)
	if l == nil {
		if ext := filepath.Ext(filename); ext != "" {
			l = lexers.Match("file" + ext)
		}
	}
	if l == nil {
		return nil
	}
	return chroma.Coalesce(l)
}

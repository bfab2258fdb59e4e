package diff

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/adaptsim/internal/model"
)

// DefaultSnippetRadius is the number of new-side lines kept on each side of
// an anchored line.
const DefaultSnippetRadius = 2

// Anchors returns one anchor per hunk that adds code, pointing at the first
// added line. Deleted and binary files are skipped. limit <= 0 means no
// limit.
func (s *Submission) Anchors(radius, limit int) []model.Anchor {
	if radius < 0 {
		radius = 0
	}
	var out []model.Anchor
	for _, f := range s.Files {
		if f.IsDeleted || f.IsBinary {
			continue
		}
		for _, frag := range f.Fragments {
			a, ok := fragmentAnchor(f.Path(), frag, radius)
			if !ok {
				continue
			}
			out = append(out, a)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

func fragmentAnchor(path string, frag *gitdiff.TextFragment, radius int) (model.Anchor, bool) {
	// New-side view of the hunk.
	var lines []string
	first := -1
	for _, l := range frag.Lines {
		if l.Op == gitdiff.OpDelete {
			continue
		}
		if l.Op == gitdiff.OpAdd && first < 0 {
			first = len(lines)
		}
		lines = append(lines, strings.TrimRight(l.Line, "\r\n"))
	}
	if first < 0 {
		return model.Anchor{}, false
	}

	lo := max(0, first-radius)
	hi := min(len(lines), first+radius+1)
	return model.Anchor{
		File:    path,
		Line:    int(frag.NewPosition) + first,
		Snippet: append([]string(nil), lines[lo:hi]...),
		Start:   int(frag.NewPosition) + lo,
	}, true
}

package review

import (
	"fmt"
	"math/rand/v2"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// Drafter picks the reviewer comments for a first review round from a
// PRReviewConfig. The language step that rewrites them into prose lives
// outside this package; the drafter only decides how many comments there
// are, who raises them, how severe they are and where they point.
type Drafter struct {
	rng *rand.Rand
}

// NewDrafter returns a drafter seeded for reproducible output.
func NewDrafter(seed uint64) *Drafter {
	return &Drafter{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewDrafterRand returns a drafter drawing from r.
func NewDrafterRand(r *rand.Rand) *Drafter {
	return &Drafter{rng: r}
}

// Draft returns between MinCommentsPerPR and MaxCommentsPerPR comments.
// Every reviewer with a typical comment count comments at least once when
// the range allows it, and no reviewer exceeds LLM.MaxCommentsPerReviewer
// unless the range minimum cannot be met otherwise. Anchors are assigned
// round-robin.
func (d *Drafter) Draft(cfg adapter.PRReviewConfig, anchors []model.Anchor) []Comment {
	if !cfg.Enabled || cfg.MaxCommentsPerPR <= 0 {
		return nil
	}
	lo, hi := cfg.MinCommentsPerPR, cfg.MaxCommentsPerPR
	if lo > hi {
		lo = hi
	}
	n := lo + d.rng.IntN(hi-lo+1)
	if want := commenters(cfg.Reviewers); want > 0 {
		n = max(n, min(want, hi))
	}
	perReviewer := cfg.LLM.MaxCommentsPerReviewer
	if perReviewer > 0 && len(cfg.Reviewers) > 0 {
		n = max(lo, min(n, perReviewer*len(cfg.Reviewers)))
	}

	authors := assignReviewers(cfg.Reviewers, n, perReviewer)
	comments := make([]Comment, 0, n)
	for i := 0; i < n; i++ {
		sev := d.severity(cfg.SeverityDistribution)
		c := d.fromTemplate(cfg.CommentTemplates, sev)
		c.ReviewerID = authors[i]
		if len(anchors) > 0 {
			a := anchors[i%len(anchors)]
			c.Anchor = &a
		}
		comments = append(comments, c)
	}
	return comments
}

// commenters is the number of reviewers expected to comment: those with a
// typical count, or all of them when no counts were derived.
func commenters(reviewers []adapter.Reviewer) int {
	n := 0
	for _, r := range reviewers {
		if r.TypicalCommentCount > 0 {
			n++
		}
	}
	if n == 0 {
		return len(reviewers)
	}
	return n
}

// assignReviewers picks the author of each of n comments. Reviewers first
// get up to their typical count, interleaved; the remainder goes round-robin
// to reviewers under perReviewer (zero means no cap).
func assignReviewers(reviewers []adapter.Reviewer, n, perReviewer int) []string {
	out := make([]string, 0, n)
	if len(reviewers) == 0 {
		return make([]string, n)
	}
	given := make([]int, len(reviewers))
	under := func(i int) bool { return perReviewer <= 0 || given[i] < perReviewer }
	full := func() bool {
		for i := range reviewers {
			if under(i) {
				return false
			}
		}
		return true
	}
	take := func(i int) {
		given[i]++
		out = append(out, reviewers[i].ID)
	}

	for progress := true; progress && len(out) < n; {
		progress = false
		for i, r := range reviewers {
			if len(out) < n && given[i] < r.TypicalCommentCount && under(i) {
				take(i)
				progress = true
			}
		}
	}
	for i := 0; len(out) < n; i++ {
		j := i % len(reviewers)
		if under(j) || full() {
			take(j)
		}
	}
	return out
}

// severity samples the mix. Severities with no weight are never drawn.
func (d *Drafter) severity(mix adapter.SeverityMix) model.Severity {
	var total float64
	for _, s := range model.AllSeverities() {
		total += mix.Weight(s)
	}
	if total <= 0 {
		return model.SeverityMinor
	}
	r := d.rng.Float64() * total
	last := model.SeverityMinor
	for _, s := range model.AllSeverities() {
		w := mix.Weight(s)
		if w <= 0 {
			continue
		}
		last = s
		if r < w {
			return s
		}
		r -= w
	}
	return last
}

func (d *Drafter) fromTemplate(templates []adapter.CommentTemplate, sev model.Severity) Comment {
	var match []adapter.CommentTemplate
	for _, t := range templates {
		if t.Severity == sev {
			match = append(match, t)
		}
	}
	c := Comment{Severity: sev, Kind: model.KindSuggestion}
	switch {
	case len(match) > 0:
		t := match[d.rng.IntN(len(match))]
		c.Kind = t.Kind
		c.Message = t.Message
		c.RequiresResponse = t.RequiresResponse
	case len(templates) > 0:
		t := templates[d.rng.IntN(len(templates))]
		c.Kind = t.Kind
		c.Message = t.Message
		c.RequiresResponse = t.RequiresResponse || sev != model.SeverityMinor
	default:
		c.Message = fmt.Sprintf("Please take another look at this change (%s).", sev)
		c.RequiresResponse = sev != model.SeverityMinor
	}
	if sev == model.SeverityBlocking {
		c.Kind = model.KindRequestChanges
		c.RequiresResponse = true
	}
	if !c.Kind.Valid() {
		c.Kind = model.KindSuggestion
	}
	return c
}

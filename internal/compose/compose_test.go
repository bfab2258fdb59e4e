package compose

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var severityKeys = []string{"minor", "major", "blocking"}

func testSchema() *Schema {
	defaults := Tree{
		"tone": "constructive",
		"ui": Tree{
			"layout":  Tree{"mode": "stacked", "sidebar": "left"},
			"showTip": true,
		},
		"review": Tree{
			"min":        1,
			"max":        3,
			"multiplier": 1.0,
			"severity":   Tree{"minor": 0.5, "major": 0.3, "blocking": 0.2},
			"reviewers":  []any{},
			"templates":  []any{},
			"cap":        10,
		},
		"rubric":    Tree{"a": 0.5, "b": 0.25, "c": 0.25},
		"passing":   70,
		"retries":   3,
		"prompt":    "",
		"threshold": 0.7,
		"delta":     0.0,
	}
	rules := []Rule{
		{Path: "review.severity", Strategy: Distribution, Keys: severityKeys},
		{Path: "rubric", Strategy: Rubric, Keys: []string{"a", "b", "c"}},
		{Path: "passing", Strategy: Clamp, Min: 0, Max: 100},
		{Path: "retries", Strategy: Clamp, Min: 1, Max: Unbounded},
		{Path: "prompt", Strategy: Append},
		{Path: "review.reviewers", Strategy: Override},
		{Path: "review.templates", Strategy: Cap, Source: "review.cap"},
		{Path: "review", Strategy: Blend, Keys: []string{"min", "max", "typical"}, Source: "review.multiplier",
			Members: "review.reviewers", MemberField: "typical", Split: true},
		{Path: "threshold", Strategy: Adjust, Source: "delta", Min: 0, Max: 1},
		{Path: "toneText", Strategy: Tone, Source: "tone"},
	}
	return NewSchema("test", defaults, rules, "tone", "ui.layout.mode", "review.typical", "toneText")
}

func TestComposeScalarOverrideAndNestedMerge(t *testing.T) {
	s := testSchema()
	role := Tree{"tone": "educational", "ui": Tree{"layout": Tree{"sidebar": "right"}}}
	level := Tree{"tone": "direct", "ui": Tree{"showTip": false}}

	out, rep := Compose(s, Layer{"role", role}, Layer{"level", level})
	require.Empty(t, rep.Issues)

	assert.Equal(t, "direct", out["tone"])
	mode, _ := Get(out, "ui.layout.mode")
	sidebar, _ := Get(out, "ui.layout.sidebar")
	tip, _ := Get(out, "ui.showTip")
	assert.Equal(t, "stacked", mode, "untouched nested key keeps default")
	assert.Equal(t, "right", sidebar)
	assert.Equal(t, false, tip)
}

func TestComposeDoesNotMutateInputs(t *testing.T) {
	s := testSchema()
	role := Tree{"ui": Tree{"layout": Tree{"sidebar": "right"}}}
	before := Copy(role)
	defaultsBefore := Copy(s.Defaults)

	out, _ := Compose(s, Layer{"role", role})
	Set(out, "ui.layout.sidebar", "changed")

	if diff := cmp.Diff(before, role); diff != "" {
		t.Errorf("role layer mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(defaultsBefore, s.Defaults); diff != "" {
		t.Errorf("defaults mutated (-want +got):\n%s", diff)
	}
}

func TestComposeDistribution(t *testing.T) {
	tests := []struct {
		name      string
		overlay   Tree
		want      Tree
		wantIssue bool
	}{
		{
			name:    "valid replacement",
			overlay: Tree{"minor": 0.7, "major": 0.25, "blocking": 0.05},
			want:    Tree{"minor": 0.7, "major": 0.25, "blocking": 0.05},
		},
		{
			name:      "missing key falls back",
			overlay:   Tree{"minor": 0.7, "major": 0.3},
			want:      Tree{"minor": 0.5, "major": 0.3, "blocking": 0.2},
			wantIssue: true,
		},
		{
			name:      "zero weight falls back",
			overlay:   Tree{"minor": 0.7, "major": 0.3, "blocking": 0.0},
			want:      Tree{"minor": 0.5, "major": 0.3, "blocking": 0.2},
			wantIssue: true,
		},
		{
			name:      "bad sum falls back",
			overlay:   Tree{"minor": 0.7, "major": 0.3, "blocking": 0.3},
			want:      Tree{"minor": 0.5, "major": 0.3, "blocking": 0.2},
			wantIssue: true,
		},
		{
			name:    "within tolerance",
			overlay: Tree{"minor": 0.3334, "major": 0.3333, "blocking": 0.3333},
			want:    Tree{"minor": 0.3334, "major": 0.3333, "blocking": 0.3333},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := Tree{"review": Tree{"severity": tt.overlay}}
			out, rep := Compose(testSchema(), Layer{"level", level})
			got, _ := Get(out, "review.severity")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantIssue, len(rep.Issues) > 0, "issues: %v", rep.Issues)
		})
	}
}

func TestComposeDistributionKeepsRoleValueOverDefault(t *testing.T) {
	role := Tree{"review": Tree{"severity": Tree{"minor": 0.6, "major": 0.3, "blocking": 0.1}}}
	level := Tree{"review": Tree{"severity": Tree{"minor": 2.0, "major": 0.3, "blocking": 0.1}}}

	out, rep := Compose(testSchema(), Layer{"role", role}, Layer{"level", level})
	got, _ := Get(out, "review.severity")
	assert.Equal(t, Tree{"minor": 0.6, "major": 0.3, "blocking": 0.1}, got)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, "level", rep.Issues[0].Layer)
}

func TestComposeRubricFillsBeforeValidating(t *testing.T) {
	// b+c stay at 0.25 each, so a=0.5 is the only valid partial.
	ok := Tree{"rubric": Tree{"a": 0.5}}
	out, rep := Compose(testSchema(), Layer{"level", ok})
	assert.Empty(t, rep.Issues)
	got, _ := Get(out, "rubric")
	assert.Equal(t, Tree{"a": 0.5, "b": 0.25, "c": 0.25}, got)

	// A partial set that would only sum to 1 after normalization is rejected.
	bad := Tree{"rubric": Tree{"a": 1.0}}
	out, rep = Compose(testSchema(), Layer{"level", bad})
	assert.NotEmpty(t, rep.Issues)
	got, _ = Get(out, "rubric")
	assert.Equal(t, Tree{"a": 0.5, "b": 0.25, "c": 0.25}, got)

	shifted := Tree{"rubric": Tree{"a": 0.4, "b": 0.35}}
	out, rep = Compose(testSchema(), Layer{"level", shifted})
	assert.Empty(t, rep.Issues)
	got, _ = Get(out, "rubric")
	assert.Equal(t, Tree{"a": 0.4, "b": 0.35, "c": 0.25}, got)
}

func TestComposeClamp(t *testing.T) {
	role := Tree{"passing": 80, "retries": 5}
	level := Tree{"passing": 120, "retries": 0}

	out, rep := Compose(testSchema(), Layer{"role", role}, Layer{"level", level})
	assert.Equal(t, 80, out["passing"], "out-of-range override keeps prior layer")
	assert.Equal(t, 5, out["retries"])
	assert.Len(t, rep.Issues, 2)

	// A malformed role value with no valid overlay falls back to the default.
	out, rep = Compose(testSchema(), Layer{"role", Tree{"passing": -5}})
	assert.Equal(t, 70, out["passing"])
	assert.NotEmpty(t, rep.Issues)
}

func TestComposeAppend(t *testing.T) {
	out, _ := Compose(testSchema(),
		Layer{"role", Tree{"prompt": "You are a reviewer."}},
		Layer{"level", Tree{"prompt": "Be gentle."}},
		Layer{"tier", Tree{"prompt": "  "}},
	)
	assert.Equal(t, "You are a reviewer.\n\nBe gentle.", out["prompt"])
}

func TestComposeBlendAndMembers(t *testing.T) {
	role := Tree{"review": Tree{"reviewers": []any{
		Tree{"id": "marcus"},
		Tree{"id": "alex"},
	}}}
	level := Tree{"review": Tree{"multiplier": 1.5}}

	out, rep := Compose(testSchema(), Layer{"role", role}, Layer{"level", level})
	require.Empty(t, rep.Issues)

	review := out["review"].(Tree)
	assert.Equal(t, 2, review["min"])
	assert.Equal(t, 5, review["max"])
	assert.Equal(t, 3, review["typical"])

	reviewers := review["reviewers"].([]any)
	total := 0
	for _, r := range reviewers {
		total += r.(Tree)["typical"].(int)
	}
	assert.Equal(t, review["typical"], total, "per-reviewer counts add up to the PR total")
}

func TestComposeCap(t *testing.T) {
	role := Tree{"review": Tree{"templates": []any{"a", "b", "c", "d"}}}
	level := Tree{"review": Tree{"cap": 2}}

	out, _ := Compose(testSchema(), Layer{"role", role}, Layer{"level", level})
	got, _ := Get(out, "review.templates")
	assert.Equal(t, []any{"a", "b"}, got)

	out, _ = Compose(testSchema(), Layer{"role", role})
	got, _ = Get(out, "review.templates")
	assert.Len(t, got, 4, "cap above length leaves the list alone")
}

func TestComposeAdjustAndTone(t *testing.T) {
	out, rep := Compose(testSchema(), Layer{"level", Tree{"delta": 0.5, "tone": "whimsical"}})
	assert.Equal(t, 1.0, out["threshold"])
	assert.Equal(t, ToneModifier(NeutralTone), out["toneText"])
	assert.NotEmpty(t, rep.Issues, "unknown tone is reported")

	out, _ = Compose(testSchema(), Layer{"level", Tree{"delta": -0.1}})
	assert.Equal(t, 0.6, out["threshold"])
}

func TestComposeRequiredFieldMissing(t *testing.T) {
	s := NewSchema("empty", Tree{}, nil, "metadata.description")
	_, rep := Compose(s)
	fatal := rep.Fatal()
	require.Len(t, fatal, 1)
	assert.Equal(t, "metadata.description", fatal[0].Path)
}

func TestComposeDeterministic(t *testing.T) {
	role := Tree{"tone": "peer", "review": Tree{"reviewers": []any{Tree{"id": "x"}}}}
	level := Tree{"review": Tree{"multiplier": 0.75, "severity": Tree{"minor": 1.0}}}

	a, ra := Compose(testSchema(), Layer{"role", role}, Layer{"level", level})
	b, rb := Compose(testSchema(), Layer{"role", role}, Layer{"level", level})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("compose not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(ra, rb); diff != "" {
		t.Errorf("report not deterministic (-first +second):\n%s", diff)
	}
}

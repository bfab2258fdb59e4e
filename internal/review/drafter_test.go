package review

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
)

func draftConfig() adapter.PRReviewConfig {
	cfg := testConfig()
	cfg.MinCommentsPerPR = 2
	cfg.MaxCommentsPerPR = 5
	cfg.Reviewers = []adapter.Reviewer{{ID: "marcus"}, {ID: "alex"}}
	cfg.CommentTemplates = []adapter.CommentTemplate{
		{Kind: model.KindSuggestion, Severity: model.SeverityMinor, Message: "Consider a clearer name."},
		{Kind: model.KindQuestion, Severity: model.SeverityMajor, Message: "What happens on empty input?", RequiresResponse: true},
	}
	return cfg
}

func TestDraftStaysInRange(t *testing.T) {
	cfg := draftConfig()
	for seed := uint64(0); seed < 50; seed++ {
		got := NewDrafter(seed).Draft(cfg, nil)
		assert.GreaterOrEqual(t, len(got), cfg.MinCommentsPerPR)
		assert.LessOrEqual(t, len(got), cfg.MaxCommentsPerPR)
	}
}

func TestDraftCoversEveryReviewer(t *testing.T) {
	cfg := draftConfig()
	cfg.MinCommentsPerPR = 0
	cfg.Reviewers = append(cfg.Reviewers, adapter.Reviewer{ID: "priya"})

	for seed := uint64(0); seed < 20; seed++ {
		seen := map[string]bool{}
		for _, c := range NewDrafter(seed).Draft(cfg, nil) {
			seen[c.ReviewerID] = true
		}
		assert.Len(t, seen, 3, "seed %d", seed)
	}
}

func TestDraftFollowsTypicalCounts(t *testing.T) {
	cfg := draftConfig()
	cfg.MinCommentsPerPR = 1
	cfg.MaxCommentsPerPR = 1
	cfg.Reviewers = []adapter.Reviewer{{ID: "marcus", TypicalCommentCount: 0}, {ID: "alex", TypicalCommentCount: 1}}

	for seed := uint64(0); seed < 20; seed++ {
		got := NewDrafter(seed).Draft(cfg, nil)
		require.Len(t, got, 1)
		assert.Equal(t, "alex", got[0].ReviewerID, "seed %d", seed)
	}
}

func TestDraftRespectsPerReviewerCap(t *testing.T) {
	cfg := draftConfig()
	cfg.MinCommentsPerPR = 1
	cfg.MaxCommentsPerPR = 6
	cfg.LLM.MaxCommentsPerReviewer = 1

	for seed := uint64(0); seed < 30; seed++ {
		counts := map[string]int{}
		got := NewDrafter(seed).Draft(cfg, nil)
		assert.LessOrEqual(t, len(got), 2)
		for _, c := range got {
			counts[c.ReviewerID]++
		}
		for id, n := range counts {
			assert.LessOrEqual(t, n, 1, "seed %d reviewer %s", seed, id)
		}
	}
}

func TestDraftRangeWinsOverCap(t *testing.T) {
	cfg := draftConfig()
	cfg.MinCommentsPerPR = 3
	cfg.MaxCommentsPerPR = 3
	cfg.LLM.MaxCommentsPerReviewer = 1

	got := NewDrafter(5).Draft(cfg, nil)
	require.Len(t, got, 3)
	for _, c := range got {
		assert.NotEmpty(t, c.ReviewerID)
	}
}

func TestDraftIsDeterministic(t *testing.T) {
	cfg := draftConfig()
	anchors := []model.Anchor{{File: "main.go", Line: 12}}
	a := NewDrafter(42).Draft(cfg, anchors)
	b := NewDrafter(42).Draft(cfg, anchors)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed drafted different comments (-a +b):\n%s", diff)
	}
}

func TestDraftNeverDrawsZeroWeightSeverity(t *testing.T) {
	cfg := draftConfig()
	cfg.SeverityDistribution = adapter.SeverityMix{Minor: 1}
	for seed := uint64(0); seed < 30; seed++ {
		for _, c := range NewDrafter(seed).Draft(cfg, nil) {
			assert.Equal(t, model.SeverityMinor, c.Severity)
		}
	}
}

func TestDraftBlockingRequestsChanges(t *testing.T) {
	cfg := draftConfig()
	cfg.SeverityDistribution = adapter.SeverityMix{Blocking: 1}
	for _, c := range NewDrafter(7).Draft(cfg, nil) {
		assert.Equal(t, model.KindRequestChanges, c.Kind)
		assert.True(t, c.RequiresResponse)
		assert.NotEmpty(t, c.Message)
	}
}

func TestDraftAnchorsRoundRobin(t *testing.T) {
	cfg := draftConfig()
	cfg.MinCommentsPerPR = 4
	cfg.MaxCommentsPerPR = 4
	anchors := []model.Anchor{{File: "a.go", Line: 1}, {File: "b.go", Line: 2}}

	got := NewDrafter(1).Draft(cfg, anchors)
	require.Len(t, got, 4)
	for i, c := range got {
		require.NotNil(t, c.Anchor)
		assert.Equal(t, anchors[i%2].File, c.Anchor.File)
		assert.Equal(t, cfg.Reviewers[i%2].ID, c.ReviewerID)
	}
}

func TestDraftDisabled(t *testing.T) {
	cfg := draftConfig()
	cfg.Enabled = false
	assert.Nil(t, NewDrafter(1).Draft(cfg, nil))
}

func TestDraftWithoutTemplates(t *testing.T) {
	cfg := draftConfig()
	cfg.CommentTemplates = nil
	for _, c := range NewDrafter(3).Draft(cfg, nil) {
		assert.NotEmpty(t, c.Message)
		assert.True(t, c.Kind.Valid())
	}
}

// Drafted comments must be accepted by the lifecycle for every composed
// execution adapter that enables review.
func TestDraftedCommentsAreAccepted(t *testing.T) {
	svc, err := adapter.Default()
	require.NoError(t, err)

	for _, role := range model.AllRoles() {
		for _, level := range model.AllLevels() {
			t.Run(fmt.Sprintf("%s/%s", role, level), func(t *testing.T) {
				ex, err := svc.Execution(string(role), string(level))
				require.NoError(t, err)
				cfg := ex.PRReview
				if !cfg.Enabled {
					t.Skip("review disabled")
				}
				l := newTestLifecycle()
				for seed := uint64(0); seed < 10; seed++ {
					comments := NewDrafter(seed).Draft(cfg, nil)
					_, err := l.RecordReviewerComments(l.Init(cfg), comments)
					require.NoError(t, err, "seed %d", seed)
				}
			})
		}
	}
}

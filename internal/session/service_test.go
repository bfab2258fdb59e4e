package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
)

const submission = `diff --git a/dates.go b/dates.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/dates.go
@@ -0,0 +1,3 @@
+package dates
+
+func Format() string { return "" }
`

// The hunk header promises three lines and delivers one.
const badDiff = `diff --git a/x.go b/x.go
index abc1234..def5678 100644
--- a/x.go
+++ b/x.go
@@ -1,3 +1,3 @@
 package x
`

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	svc, err := adapter.Default()
	require.NoError(t, err)
	return NewService(svc, testLifecycle(), NewStore(nil), opts...)
}

func TestStartDraftsFirstRound(t *testing.T) {
	s := newTestService(t, WithSeed(11))

	sess, err := s.Start(StartRequest{Role: "developer", Level: "mid", Diff: submission})
	require.NoError(t, err)

	assert.Equal(t, model.RoleDeveloper, sess.Role)
	assert.Equal(t, model.LevelMid, sess.Level)
	assert.Equal(t, 1, sess.Version)
	require.Len(t, sess.Anchors, 1)
	assert.Equal(t, "dates.go", sess.Anchors[0].File)

	cfg := sess.State.Config
	assert.GreaterOrEqual(t, len(sess.State.Threads), cfg.MinCommentsPerPR)
	assert.LessOrEqual(t, len(sess.State.Threads), cfg.MaxCommentsPerPR)
	for _, th := range sess.State.Threads {
		require.NotNil(t, th.Anchor)
		assert.Equal(t, "dates.go", th.Anchor.File)
	}
	assert.Contains(t, []model.ReviewStatus{model.StatusChangesRequested, model.StatusApproved}, sess.State.Status)

	stored, err := s.Store().Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.State.Status, stored.State.Status)
}

func TestStartFallsBackToDefaults(t *testing.T) {
	s := newTestService(t, WithSeed(3))
	sess, err := s.Start(StartRequest{Role: "astronaut", Level: "wizard"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleDeveloper, sess.Role)
	assert.Equal(t, model.LevelIntern, sess.Level)
	assert.Empty(t, sess.Anchors)
}

func TestStartSameSeedSameThreads(t *testing.T) {
	seed := uint64(99)
	a, err := newTestService(t).Start(StartRequest{Role: "qa", Level: "junior", Seed: &seed})
	require.NoError(t, err)
	b, err := newTestService(t).Start(StartRequest{Role: "qa", Level: "junior", Seed: &seed})
	require.NoError(t, err)

	strip := func(ts []review.Thread) []review.Comment {
		var out []review.Comment
		for _, t := range ts {
			out = append(out, review.Comment{ReviewerID: t.ReviewerID, Kind: t.Kind, Severity: t.Severity, Message: t.Message})
		}
		return out
	}
	if diff := cmp.Diff(strip(a.State.Threads), strip(b.State.Threads)); diff != "" {
		t.Errorf("same seed drafted different rounds (-a +b):\n%s", diff)
	}
}

func TestStartRejectsDisabledReview(t *testing.T) {
	s := newTestService(t)
	_, err := s.Start(StartRequest{Role: "pm", Level: "mid"})
	assert.True(t, review.IsReason(err, review.ReasonReviewDisabled), "got %v", err)
	assert.Equal(t, 0, s.Store().Len())
}

func TestStartRejectsBadDiff(t *testing.T) {
	s := newTestService(t)
	_, err := s.Start(StartRequest{Role: "developer", Level: "mid", Diff: badDiff})
	assert.ErrorIs(t, err, ErrInvalidDiff)
}

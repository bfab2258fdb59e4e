package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLifecycle() *review.Lifecycle {
	var mu sync.Mutex
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	n := 0
	return review.New(
		review.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
		review.WithIDs(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func reviewConfig() adapter.PRReviewConfig {
	return adapter.PRReviewConfig{
		Enabled:               true,
		MinCommentsPerPR:      1,
		MaxCommentsPerPR:      3,
		AutoApproveThreshold:  1,
		MaxRevisionCycles:     3,
		SeverityDistribution:  adapter.SeverityMix{Minor: 0.6, Major: 0.4},
		MinorResponseBehavior: model.MinorManual,
		ReReview:              adapter.ReReviewConfig{RequireTestsPass: true},
	}
}

// readyForReReview creates a session whose only thread is addressed and
// whose tests pass.
func readyForReReview(t *testing.T, s *Store, l *review.Lifecycle) Session {
	t.Helper()
	st, err := l.RecordReviewerComments(l.Init(reviewConfig()), []review.Comment{{
		ReviewerID:       "marcus",
		Kind:             model.KindRequestChanges,
		Severity:         model.SeverityMajor,
		Message:          "Handle the error from Close.",
		RequiresResponse: true,
	}})
	require.NoError(t, err)
	st, err = l.RecordUserResponse(st, st.Threads[0].ID, "Now wrapped and returned.")
	require.NoError(t, err)
	st, err = l.RecordTestRun(st, true)
	require.NoError(t, err)

	sess, err := s.Create(model.RoleDeveloper, model.LevelMid, nil, st)
	require.NoError(t, err)
	return sess
}

func TestCreateGetDelete(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	sess := readyForReReview(t, s, l)

	assert.Equal(t, 1, sess.Version)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusChangesRequested, got.State.Status)
	assert.Equal(t, model.RoleDeveloper, got.Role)

	_, err = s.Create(model.RoleDeveloper, model.LevelMid, nil, got.State)
	assert.Error(t, err)

	require.NoError(t, s.Delete(sess.ID))
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(sess.ID), ErrNotFound)
	_, err = s.Apply(sess.ID, -1, l.Approve)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRequiresID(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Create(model.RoleQA, model.LevelIntern, nil, review.State{})
	assert.Error(t, err)
}

func TestApplyBumpsVersion(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	sess := readyForReReview(t, s, l)

	next, err := s.Apply(sess.ID, sess.Version, l.RequestReReview)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, 2, next.State.Cycle)

	_, err = s.Apply(sess.ID, sess.Version, l.Approve)
	assert.ErrorIs(t, err, ErrConflict)

	next, err = s.Apply(sess.ID, -1, l.Approve)
	require.NoError(t, err)
	assert.Equal(t, 3, next.Version)
	assert.True(t, next.State.CanMerge())
}

func TestApplyRejectionLeavesSessionUntouched(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	sess := readyForReReview(t, s, l)

	got, err := s.Apply(sess.ID, -1, l.Merge)
	assert.True(t, review.IsReason(err, review.ReasonNotApproved))
	assert.Equal(t, sess.Version, got.Version)

	stored, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Version, stored.Version)
	assert.Equal(t, sess.State.Status, stored.State.Status)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	sess := readyForReReview(t, s, l)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	got.State.Threads[0].Message = "changed"

	again, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Handle the error from Close.", again.State.Threads[0].Message)
}

func TestConcurrentReReviewSucceedsOnce(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	sess := readyForReReview(t, s, l)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.Apply(sess.ID, sess.Version, l.RequestReReview)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.State.Cycle)
	assert.Equal(t, 2, got.Version)
}

func TestConcurrentUnversionedTransitionsSerialize(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	sess := readyForReReview(t, s, l)

	const runs = 20
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Apply(sess.ID, -1, func(st review.State) (review.State, error) {
				return l.RecordTestRun(st, i%2 == 0)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.State.TestRuns+runs, got.State.TestRuns)
	assert.Equal(t, 1+runs, got.Version)
}

func TestListOrdersByCreation(t *testing.T) {
	s := NewStore(nil)
	l := testLifecycle()
	first := readyForReReview(t, s, l)
	second := readyForReReview(t, s, l)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

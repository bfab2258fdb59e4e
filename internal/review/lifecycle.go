package review

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// Lifecycle applies review transitions. It holds no review state itself and
// is safe for concurrent use.
type Lifecycle struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

// WithIDs sets the generator used for review and thread IDs.
func WithIDs(gen func() string) Option {
	return func(l *Lifecycle) { l.newID = gen }
}

// New returns a Lifecycle using the wall clock and random UUIDs.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Init starts a review in pending_review with the first revision cycle open.
func (l *Lifecycle) Init(cfg adapter.PRReviewConfig) State {
	now := l.now()
	return State{
		ID:        l.newID(),
		Status:    model.StatusPendingReview,
		Cycle:     1,
		Threads:   []Thread{},
		Cycles:    []RevisionCycle{{Number: 1, StartedAt: now, Requested: []string{}, Addressed: []string{}}},
		Config:    cloneConfig(cfg),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordReviewerComments opens one thread per comment. On the first round
// the count must fall within the configured comment range, and the round
// decides whether the review needs changes or approves outright.
func (l *Lifecycle) RecordReviewerComments(st State, comments []Comment) (State, error) {
	cfg := st.Config
	if !cfg.Enabled {
		return st, reject(ReasonReviewDisabled, "")
	}
	if st.Status != model.StatusPendingReview && st.Status != model.StatusChangesRequested {
		return st, reject(ReasonInvalidStatus, "cannot add reviewer comments while %s", st.Status)
	}

	initial := st.Status == model.StatusPendingReview
	if initial {
		if n := len(comments); n < cfg.MinCommentsPerPR || n > cfg.MaxCommentsPerPR {
			return st, reject(ReasonCommentCountOutOfRange,
				"got %d comments, want between %d and %d", n, cfg.MinCommentsPerPR, cfg.MaxCommentsPerPR)
		}
	} else if len(comments) == 0 {
		return st, reject(ReasonCommentCountOutOfRange, "a follow-up round needs at least one comment")
	}
	for i, c := range comments {
		if err := validateComment(c, cfg); err != "" {
			return st, reject(ReasonInvalidComment, "comment %d: %s", i, err)
		}
	}

	next := st.Clone()
	now := l.now()
	cur := next.current()
	for _, c := range comments {
		t := Thread{
			ID:               l.newID(),
			ReviewerID:       c.ReviewerID,
			Kind:             c.Kind,
			Severity:         c.Severity,
			Message:          strings.TrimSpace(c.Message),
			RequiresResponse: c.RequiresResponse,
			Status:           model.ThreadOpen,
			Cycle:            next.Cycle,
			CreatedAt:        now,
		}
		if c.Anchor != nil {
			a := *c.Anchor
			a.Snippet = slices.Clone(a.Snippet)
			t.Anchor = &a
		}
		next.Threads = append(next.Threads, t)
		cur.Requested = append(cur.Requested, t.ID)
	}

	if initial {
		if autoApprovable(next) {
			dismissNits(&next, now)
			next.Status = model.StatusApproved
		} else {
			next.Status = model.StatusChangesRequested
		}
	}
	next.UpdatedAt = now
	return next, nil
}

func validateComment(c Comment, cfg adapter.PRReviewConfig) string {
	switch {
	case !c.Kind.Valid():
		return fmt.Sprintf("unknown kind %q", c.Kind)
	case !c.Severity.Valid():
		return fmt.Sprintf("unknown severity %q", c.Severity)
	case strings.TrimSpace(c.Message) == "":
		return "message is empty"
	case cfg.SeverityDistribution.Weight(c.Severity) <= 0:
		return fmt.Sprintf("severity %q has no weight for this level", c.Severity)
	}
	return ""
}

// autoApprovable reports whether every outstanding thread is a nit and there
// are few enough of them.
func autoApprovable(st State) bool {
	out := st.Outstanding()
	for _, t := range out {
		if !t.nit() {
			return false
		}
	}
	return len(out) <= st.Config.AutoApproveThreshold
}

func dismissNits(st *State, now time.Time) {
	for i := range st.Threads {
		t := &st.Threads[i]
		if t.Outstanding() && t.nit() {
			t.Status = model.ThreadDismissed
			t.ResolvedAt = &now
		}
	}
}

// RecordUserResponse marks a thread addressed. What happens to minor threads
// afterwards follows the configured MinorResponseBehavior.
func (l *Lifecycle) RecordUserResponse(st State, threadID, response string) (State, error) {
	if st.Status != model.StatusChangesRequested {
		return st, reject(ReasonInvalidStatus, "cannot respond to threads while %s", st.Status)
	}
	i := st.threadIndex(threadID)
	if i < 0 {
		return st, reject(ReasonUnknownThread, "no thread %q", threadID)
	}
	if st.Threads[i].Status.Closed() {
		return st, reject(ReasonThreadClosed, "thread %q is %s", threadID, st.Threads[i].Status)
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return st, reject(ReasonEmptyResponse, "")
	}

	next := st.Clone()
	now := l.now()
	t := &next.Threads[i]
	t.Response = response
	t.UserAddressedAt = &now
	t.Status = model.ThreadAddressed
	t.FollowUpRequested = false

	if t.Severity == model.SeverityMinor {
		applyMinorPolicy(t, next.Config, now)
	}

	cur := next.current()
	if !slices.Contains(cur.Addressed, t.ID) {
		cur.Addressed = append(cur.Addressed, t.ID)
	}
	next.UpdatedAt = now
	return next, nil
}

func applyMinorPolicy(t *Thread, cfg adapter.PRReviewConfig, now time.Time) {
	strict := cfg.ReReview.StrictCodeVerification
	switch cfg.MinorResponseBehavior {
	case model.MinorAutoResolve:
		if !strict {
			t.Status = model.ThreadResolved
			t.ResolvedAt = &now
		}
	case model.MinorIntelligentFollowUp:
		if t.RequiresResponse {
			t.FollowUpRequested = true
		} else if !strict {
			t.Status = model.ThreadResolved
			t.ResolvedAt = &now
		}
	}
}

// RecordTestRun stores the outcome of the latest test run.
func (l *Lifecycle) RecordTestRun(st State, passed bool) (State, error) {
	if st.Status == model.StatusMerged {
		return st, reject(ReasonInvalidStatus, "review is already merged")
	}
	next := st.Clone()
	next.LastTestsPassed = passed
	next.TestRuns++
	next.UpdatedAt = l.now()
	return next, nil
}

// AttachSubmission records the reference of the change submitted in the
// current revision cycle.
func (l *Lifecycle) AttachSubmission(st State, ref string) (State, error) {
	if st.Status != model.StatusPendingReview && st.Status != model.StatusChangesRequested {
		return st, reject(ReasonInvalidStatus, "cannot attach a submission while %s", st.Status)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return st, reject(ReasonEmptyResponse, "submission reference is empty")
	}
	next := st.Clone()
	next.current().Submission = ref
	next.UpdatedAt = l.now()
	return next, nil
}

// RequestReReview closes the current revision cycle and opens the next one.
// Without strict verification, addressed threads are resolved by the
// re-review; with it they stay addressed until the reviewer resolves them.
func (l *Lifecycle) RequestReReview(st State) (State, error) {
	if st.Status != model.StatusChangesRequested {
		return st, reject(ReasonInvalidStatus, "cannot request re-review while %s", st.Status)
	}
	for _, t := range st.Threads {
		if t.RequiresResponse && t.Outstanding() && t.UserAddressedAt == nil {
			return st, reject(ReasonUnaddressedThread, "thread %q (%s) still needs a response", t.ID, t.Severity)
		}
	}
	cfg := st.Config
	if cfg.ReReview.RequireTestsPass && !st.LastTestsPassed {
		return st, reject(ReasonTestsNotPassing, "")
	}
	if st.Cycle >= cfg.MaxRevisionCycles {
		return st, reject(ReasonRevisionLimitExceeded,
			"cycle %d of %d; escalate instead of requesting another review", st.Cycle, cfg.MaxRevisionCycles)
	}

	next := st.Clone()
	now := l.now()
	next.current().ClosedAt = &now

	if !cfg.ReReview.StrictCodeVerification {
		for i := range next.Threads {
			t := &next.Threads[i]
			if t.Status == model.ThreadAddressed {
				t.Status = model.ThreadResolved
				t.ResolvedAt = &now
			}
		}
	}

	next.Cycle++
	carried := []string{}
	for _, t := range next.Threads {
		if t.Outstanding() {
			carried = append(carried, t.ID)
		}
	}
	next.Cycles = append(next.Cycles, RevisionCycle{
		Number:    next.Cycle,
		StartedAt: now,
		Requested: carried,
		Addressed: []string{},
	})
	next.UpdatedAt = now
	return next, nil
}

// Approve moves the review to approved. From pending_review the auto-approval
// rule applies; from changes_requested every thread must be closed, except
// nits, which are dismissed unless the config requires everything resolved.
func (l *Lifecycle) Approve(st State) (State, error) {
	now := l.now()
	switch st.Status {
	case model.StatusPendingReview:
		if !st.Config.Enabled {
			return st, reject(ReasonReviewDisabled, "")
		}
		if n := len(st.Threads); n < st.Config.MinCommentsPerPR {
			return st, reject(ReasonCommentCountOutOfRange,
				"no reviewer round recorded: got %d comments, want at least %d", n, st.Config.MinCommentsPerPR)
		}
		if !autoApprovable(st) {
			return st, reject(ReasonUnresolvedThreads, "threads need changes before approval")
		}
		next := st.Clone()
		dismissNits(&next, now)
		next.Status = model.StatusApproved
		next.UpdatedAt = now
		return next, nil

	case model.StatusChangesRequested:
		cfg := st.Config
		if st.Cycle > cfg.MaxRevisionCycles {
			return st, reject(ReasonRevisionLimitExceeded,
				"cycle %d exceeds the limit of %d", st.Cycle, cfg.MaxRevisionCycles)
		}
		if cfg.ReReview.RequireTestsPass && !st.LastTestsPassed {
			return st, reject(ReasonTestsNotPassing, "")
		}
		for _, t := range st.Threads {
			if cfg.ReReview.StrictCodeVerification && t.Status == model.ThreadAddressed {
				return st, reject(ReasonUnverifiedThread, "thread %q is addressed but not verified", t.ID)
			}
		}
		var blocking []string
		for _, t := range st.Outstanding() {
			if cfg.RequireAllResolved || !t.nit() {
				blocking = append(blocking, t.ID)
			}
		}
		if len(blocking) > 0 {
			return st, reject(ReasonUnresolvedThreads, "%d thread(s) still outstanding: %s",
				len(blocking), strings.Join(blocking, ", "))
		}
		next := st.Clone()
		dismissNits(&next, now)
		next.Status = model.StatusApproved
		next.UpdatedAt = now
		return next, nil
	}
	return st, reject(ReasonInvalidStatus, "cannot approve while %s", st.Status)
}

// Merge completes an approved review. The thread check does not trust the
// status alone.
func (l *Lifecycle) Merge(st State) (State, error) {
	if st.Status != model.StatusApproved {
		return st, reject(ReasonNotApproved, "status is %s", st.Status)
	}
	if st.testsFailing() {
		return st, reject(ReasonTestsNotPassing, "")
	}
	if !st.CanMerge() {
		return st, reject(ReasonUnresolvedThreads, "%d thread(s) still outstanding", len(st.Outstanding()))
	}
	next := st.Clone()
	now := l.now()
	next.Status = model.StatusMerged
	next.current().ClosedAt = &now
	next.UpdatedAt = now
	return next, nil
}

// ResolveThread is the reviewer accepting a thread.
func (l *Lifecycle) ResolveThread(st State, threadID string) (State, error) {
	return l.closeThread(st, threadID, model.ThreadResolved)
}

// DismissThread is the reviewer dropping a thread. Blocking threads must be
// resolved instead.
func (l *Lifecycle) DismissThread(st State, threadID string) (State, error) {
	if t, ok := st.Thread(threadID); ok && t.Severity == model.SeverityBlocking {
		return st, reject(ReasonCannotDismissBlocking, "thread %q is blocking", threadID)
	}
	return l.closeThread(st, threadID, model.ThreadDismissed)
}

func (l *Lifecycle) closeThread(st State, threadID string, to model.ThreadStatus) (State, error) {
	if st.Status == model.StatusMerged {
		return st, reject(ReasonInvalidStatus, "review is already merged")
	}
	i := st.threadIndex(threadID)
	if i < 0 {
		return st, reject(ReasonUnknownThread, "no thread %q", threadID)
	}
	if st.Threads[i].Status.Closed() {
		return st, reject(ReasonThreadClosed, "thread %q is %s", threadID, st.Threads[i].Status)
	}
	next := st.Clone()
	now := l.now()
	t := &next.Threads[i]
	t.Status = to
	t.ResolvedAt = &now
	t.FollowUpRequested = false
	next.UpdatedAt = now
	return next, nil
}

// ReopenThread puts a closed thread back in front of the author. Reopening a
// thread on an approved review sends it back to changes_requested.
func (l *Lifecycle) ReopenThread(st State, threadID string) (State, error) {
	if st.Status == model.StatusMerged {
		return st, reject(ReasonInvalidStatus, "review is already merged")
	}
	i := st.threadIndex(threadID)
	if i < 0 {
		return st, reject(ReasonUnknownThread, "no thread %q", threadID)
	}
	if !st.Threads[i].Status.Closed() {
		return st, reject(ReasonThreadOpen, "thread %q is %s", threadID, st.Threads[i].Status)
	}
	next := st.Clone()
	now := l.now()
	t := &next.Threads[i]
	t.Status = model.ThreadOpen
	t.ResolvedAt = nil
	t.UserAddressedAt = nil
	t.FollowUpRequested = false

	cur := next.current()
	if !slices.Contains(cur.Requested, t.ID) {
		cur.Requested = append(cur.Requested, t.ID)
	}
	if next.Status == model.StatusApproved || next.Status == model.StatusPendingReview {
		next.Status = model.StatusChangesRequested
	}
	next.UpdatedAt = now
	return next, nil
}

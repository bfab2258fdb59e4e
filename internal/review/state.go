// Package review implements the pull-request review lifecycle: reviewer
// threads, author responses, test runs and revision cycles, gated by the
// PRReviewConfig slice of the execution adapter.
//
// Every transition takes a State by value and returns a new one. The input
// is never modified, and a rejected transition returns it unchanged together
// with a *Rejection.
package review

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// Comment is a reviewer comment before it becomes a thread.
type Comment struct {
	ReviewerID       string            `json:"reviewer_id"`
	Kind             model.CommentKind `json:"kind"`
	Severity         model.Severity    `json:"severity"`
	Message          string            `json:"message"`
	RequiresResponse bool              `json:"requires_response"`
	Anchor           *model.Anchor     `json:"anchor,omitempty"`
}

// Thread is one reviewer comment and the author's handling of it.
type Thread struct {
	ID               string             `json:"id"`
	ReviewerID       string             `json:"reviewer_id"`
	Kind             model.CommentKind  `json:"kind"`
	Severity         model.Severity     `json:"severity"`
	Message          string             `json:"message"`
	RequiresResponse bool               `json:"requires_response"`
	Anchor           *model.Anchor      `json:"anchor,omitempty"`
	Status           model.ThreadStatus `json:"status"`
	Cycle            int                `json:"cycle"`
	CreatedAt        time.Time          `json:"created_at"`
	Response         string             `json:"response,omitempty"`
	UserAddressedAt  *time.Time         `json:"user_addressed_at,omitempty"`
	ResolvedAt       *time.Time         `json:"resolved_at,omitempty"`

	// FollowUpRequested marks a minor thread whose response the reviewer
	// wants to come back to.
	FollowUpRequested bool `json:"follow_up_requested,omitempty"`
}

// Outstanding reports whether the thread still needs attention.
func (t Thread) Outstanding() bool { return !t.Status.Closed() }

// nit reports whether the thread can be dismissed without the author's input.
func (t Thread) nit() bool {
	return t.Severity == model.SeverityMinor && !t.RequiresResponse
}

// RevisionCycle is one review, rework and resubmission loop. Cycles are
// appended and never rewritten once closed.
type RevisionCycle struct {
	Number     int        `json:"number"`
	StartedAt  time.Time  `json:"started_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	Requested  []string   `json:"requested"`
	Addressed  []string   `json:"addressed"`
	Submission string     `json:"submission,omitempty"`
}

// State is the aggregate of one review session.
type State struct {
	ID              string                 `json:"id"`
	Status          model.ReviewStatus     `json:"status"`
	Cycle           int                    `json:"cycle"`
	Threads         []Thread               `json:"threads"`
	Cycles          []RevisionCycle        `json:"cycles"`
	LastTestsPassed bool                   `json:"last_tests_passed"`
	TestRuns        int                    `json:"test_runs"`
	Config          adapter.PRReviewConfig `json:"config"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// CanRequestReReview holds when every thread that needs a response and is
// still outstanding has been answered, and the latest test run passed if the
// config requires it.
func (s State) CanRequestReReview() bool {
	for _, t := range s.Threads {
		if t.RequiresResponse && t.Outstanding() && t.UserAddressedAt == nil {
			return false
		}
	}
	return !s.Config.ReReview.RequireTestsPass || s.LastTestsPassed
}

// CanMerge is computed from thread state as well as status, so an approved
// review with a reopened thread cannot merge. A failed test run recorded
// after approval blocks the merge when the config requires passing tests.
func (s State) CanMerge() bool {
	if s.Status != model.StatusApproved || s.testsFailing() {
		return false
	}
	for _, t := range s.Threads {
		if t.Outstanding() {
			return false
		}
	}
	return true
}

// testsFailing reports whether the latest recorded test run failed while the
// config requires passing tests. A review that was never tested is not failing.
func (s State) testsFailing() bool {
	return s.Config.ReReview.RequireTestsPass && s.TestRuns > 0 && !s.LastTestsPassed
}

// Thread returns the thread with the given ID.
func (s State) Thread(id string) (Thread, bool) {
	if i := s.threadIndex(id); i >= 0 {
		return s.Threads[i], true
	}
	return Thread{}, false
}

// Outstanding returns the threads that are neither resolved nor dismissed.
func (s State) Outstanding() []Thread {
	var out []Thread
	for _, t := range s.Threads {
		if t.Outstanding() {
			out = append(out, t)
		}
	}
	return out
}

// CurrentCycle returns the open revision cycle.
func (s State) CurrentCycle() RevisionCycle {
	if len(s.Cycles) == 0 {
		return RevisionCycle{}
	}
	return s.Cycles[len(s.Cycles)-1]
}

func (s State) threadIndex(id string) int {
	for i, t := range s.Threads {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) current() *RevisionCycle {
	return &s.Cycles[len(s.Cycles)-1]
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Threads = make([]Thread, len(s.Threads))
	for i, t := range s.Threads {
		out.Threads[i] = t.clone()
	}
	out.Cycles = make([]RevisionCycle, len(s.Cycles))
	for i, c := range s.Cycles {
		c.Requested = slices.Clone(c.Requested)
		c.Addressed = slices.Clone(c.Addressed)
		c.ClosedAt = clonePtr(c.ClosedAt)
		out.Cycles[i] = c
	}
	out.Config = cloneConfig(s.Config)
	return out
}

func (t Thread) clone() Thread {
	if t.Anchor != nil {
		a := *t.Anchor
		a.Snippet = slices.Clone(a.Snippet)
		t.Anchor = &a
	}
	t.UserAddressedAt = clonePtr(t.UserAddressedAt)
	t.ResolvedAt = clonePtr(t.ResolvedAt)
	return t
}

func cloneConfig(c adapter.PRReviewConfig) adapter.PRReviewConfig {
	c.Reviewers = slices.Clone(c.Reviewers)
	for i := range c.Reviewers {
		c.Reviewers[i].FocusAreas = slices.Clone(c.Reviewers[i].FocusAreas)
	}
	c.CommentTemplates = slices.Clone(c.CommentTemplates)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MarshalJSON adds the computed capability flags to the serialized state.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	return json.Marshal(struct {
		plain
		CanRequestReReview bool `json:"can_request_re_review"`
		CanMerge           bool `json:"can_merge"`
	}{
		plain:              plain(s),
		CanRequestReReview: s.CanRequestReReview(),
		CanMerge:           s.CanMerge(),
	})
}

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

// apply runs fn against the stored session at the version the model last
// saw and reports the outcome in the status bar.
func (m *Model) apply(done string, fn session.Transition) {
	sess, err := m.store.Apply(m.sess.ID, m.sess.Version, fn)
	switch {
	case err == nil:
		m.sess = sess
		m.setStatus(done, false)
	case errors.Is(err, session.ErrConflict):
		m.sess = sess
		m.setStatus("session changed elsewhere; reloaded", true)
	default:
		if r, ok := review.AsRejection(err); ok {
			m.setStatus(fmt.Sprintf("%s: %s", r.Reason, r.Message), true)
		} else {
			m.setStatus(err.Error(), true)
		}
	}
	m.threadIndex = min(m.threadIndex, max(0, len(m.sess.State.Threads)-1))
}

func (m *Model) threadAction(done string, fn func(review.State, string) (review.State, error)) {
	t, ok := m.selected()
	if !ok {
		m.setStatus("no thread selected", true)
		return
	}
	tid := t.ID
	m.apply("thread "+done, func(st review.State) (review.State, error) {
		return fn(st, tid)
	})
}

func (m *Model) recordTests(passed bool) {
	lc := m.lc
	done := "tests failing"
	if passed {
		done = "tests passing"
	}
	m.apply(done, func(st review.State) (review.State, error) {
		return lc.RecordTestRun(st, passed)
	})
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// Summary describes where a session ended up, for printing after the TUI
// exits.
func Summary(sess session.Session) string {
	st := sess.State
	var b strings.Builder

	fmt.Fprintf(&b, "Review %s (%s, %s): %s after %d cycle(s)\n", sess.ID, sess.Role, sess.Level, st.Status, st.Cycle)

	counts := make(map[model.ThreadStatus]int)
	for _, t := range st.Threads {
		counts[t.Status]++
	}
	var parts []string
	for _, s := range []model.ThreadStatus{model.ThreadOpen, model.ThreadAddressed, model.ThreadResolved, model.ThreadDismissed} {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no threads")
	}
	fmt.Fprintf(&b, "Threads: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(&b, "Tests: %s (%d run(s))\n", testsLabel(st), st.TestRuns)

	if open := st.Outstanding(); len(open) > 0 && st.Status != model.StatusMerged {
		b.WriteString("Still outstanding:\n")
		for _, t := range open {
			fmt.Fprintf(&b, "  - %s\n", threadLabel(t))
		}
	}
	return b.String()
}

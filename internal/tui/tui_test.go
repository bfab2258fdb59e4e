package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

var testAnchor = model.Anchor{
	File:    "dates.go",
	Line:    3,
	Start:   1,
	Snippet: []string{"package dates", "", "func Format() string { return \"\" }"},
}

func testConfig() adapter.PRReviewConfig {
	return adapter.PRReviewConfig{
		Enabled:               true,
		MinCommentsPerPR:      1,
		MaxCommentsPerPR:      4,
		AutoApproveThreshold:  1,
		MaxRevisionCycles:     3,
		SeverityDistribution:  adapter.SeverityMix{Minor: 0.5, Major: 0.5},
		MinorResponseBehavior: model.MinorManual,
		ReReview:              adapter.ReReviewConfig{RequireTestsPass: true},
	}
}

// setupModel opens a review with one anchored major thread and one nit.
func setupModel(t *testing.T) (Model, *session.Store) {
	t.Helper()
	lc := review.New()
	a := testAnchor
	st, err := lc.RecordReviewerComments(lc.Init(testConfig()), []review.Comment{
		{ReviewerID: "marcus", Kind: model.KindRequestChanges, Severity: model.SeverityMajor,
			Message: "Return an error instead of an empty string.", RequiresResponse: true, Anchor: &a},
		{ReviewerID: "alex", Kind: model.KindSuggestion, Severity: model.SeverityMinor,
			Message: "Consider a doc comment."},
	})
	if err != nil {
		t.Fatalf("RecordReviewerComments: %v", err)
	}

	store := session.NewStore(nil)
	sess, err := store.Create(model.RoleDeveloper, model.LevelJunior, []model.Anchor{a}, st)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m := New(store, lc, sess, nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model), store
}

func press(t *testing.T, m Model, input ...string) Model {
	t.Helper()
	for _, k := range input {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		newM, _ := m.Update(msg)
		m = newM.(Model)
	}
	return m
}

func TestModelInit(t *testing.T) {
	m, _ := setupModel(t)

	if m.threadIndex != 0 {
		t.Errorf("expected threadIndex 0, got %d", m.threadIndex)
	}
	if got := m.Session().State.Status; got != model.StatusChangesRequested {
		t.Errorf("expected changes_requested, got %s", got)
	}
	if m.Session().Version != 1 {
		t.Errorf("expected version 1, got %d", m.Session().Version)
	}
}

func TestNavigation(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "j")
	if m.threadIndex != 1 {
		t.Errorf("expected threadIndex 1 after down, got %d", m.threadIndex)
	}

	m = press(t, m, "j")
	if m.threadIndex != 1 {
		t.Errorf("expected threadIndex 1 at end, got %d", m.threadIndex)
	}

	m = press(t, m, "k", "k")
	if m.threadIndex != 0 {
		t.Errorf("expected threadIndex 0 at start, got %d", m.threadIndex)
	}
}

func TestViewRenders(t *testing.T) {
	m, _ := setupModel(t)
	view := m.View()

	for _, want := range []string{"changes_requested", "dates.go:3", "marcus", "Needs a response"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewBeforeResize(t *testing.T) {
	m, _ := setupModel(t)
	m.width, m.height = 0, 0
	if got := m.View(); got != "Loading..." {
		t.Errorf("expected loading placeholder, got %q", got)
	}
}

func TestRespond(t *testing.T) {
	m, store := setupModel(t)

	m = press(t, m, "r")
	if !m.composing {
		t.Fatal("expected composer to open")
	}
	m = press(t, m, "Now returns an error", "enter")

	if m.composing {
		t.Error("expected composer to close after submit")
	}
	th := m.Session().State.Threads[0]
	if th.Status != model.ThreadAddressed || th.Response != "Now returns an error" {
		t.Errorf("thread not addressed: status=%s response=%q", th.Status, th.Response)
	}
	if m.statusErr {
		t.Errorf("unexpected error status %q", m.status)
	}

	stored, err := store.Get(m.Session().ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("expected stored version 2, got %d", stored.Version)
	}
}

func TestComposerCancel(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "r", "q", "esc")
	if m.composing {
		t.Error("expected composer to close on esc")
	}
	if m.Session().Version != 1 {
		t.Errorf("cancelled response changed the session: version %d", m.Session().Version)
	}
}

func TestEmptyResponseRejected(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "r", "enter")
	if !m.statusErr || !strings.Contains(m.status, string(review.ReasonEmptyResponse)) {
		t.Errorf("expected empty_response in status bar, got %q", m.status)
	}
}

func TestRejectionShownInStatusBar(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "R")
	if !m.statusErr {
		t.Fatal("expected an error status")
	}
	if !strings.Contains(m.status, string(review.ReasonUnaddressedThread)) {
		t.Errorf("expected unaddressed_thread in status, got %q", m.status)
	}
	if m.Session().Version != 1 {
		t.Errorf("rejected action changed version to %d", m.Session().Version)
	}
	if !strings.Contains(m.View(), string(review.ReasonUnaddressedThread)) {
		t.Error("rejection not rendered")
	}
}

func TestReviewToMerge(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "r", "Now returns an error", "enter")
	m = press(t, m, "t")
	m = press(t, m, "R")
	if m.statusErr {
		t.Fatalf("re-review rejected: %s", m.status)
	}
	st := m.Session().State
	if st.Cycle != 2 || st.Threads[0].Status != model.ThreadResolved {
		t.Fatalf("expected cycle 2 with the major thread resolved, got cycle %d, %s", st.Cycle, st.Threads[0].Status)
	}

	m = press(t, m, "j", "d", "a")
	if m.statusErr {
		t.Fatalf("approve rejected: %s", m.status)
	}
	if got := m.Session().State.Status; got != model.StatusApproved {
		t.Fatalf("expected approved, got %s", got)
	}

	m = press(t, m, "m")
	if got := m.Session().State.Status; got != model.StatusMerged {
		t.Fatalf("expected merged, got %s", got)
	}

	summary := Summary(m.Session())
	if !strings.Contains(summary, "merged after 2 cycle(s)") {
		t.Errorf("unexpected summary:\n%s", summary)
	}
	if strings.Contains(summary, "Still outstanding") {
		t.Errorf("merged summary lists outstanding threads:\n%s", summary)
	}
}

func TestStaleSessionReloads(t *testing.T) {
	m, store := setupModel(t)
	lc := review.New()

	// Another client records a test run first.
	if _, err := store.Apply(m.Session().ID, 1, func(st review.State) (review.State, error) {
		return lc.RecordTestRun(st, true)
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	m = press(t, m, "T")
	if !m.statusErr || !strings.Contains(m.status, "reloaded") {
		t.Errorf("expected a reload notice, got %q", m.status)
	}
	if m.Session().Version != 2 || !m.Session().State.LastTestsPassed {
		t.Errorf("model did not pick up the stored session: %+v", m.Session().Version)
	}

	m = press(t, m, "T")
	if m.statusErr || m.Session().State.LastTestsPassed {
		t.Errorf("retry after reload should apply: status %q", m.status)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "?")
	if !m.showHelp {
		t.Fatal("expected help to show")
	}
	if view := m.View(); !strings.Contains(view, "request re-review") {
		t.Errorf("help view missing bindings:\n%s", view)
	}

	m = press(t, m, "?")
	if m.showHelp {
		t.Error("expected help to hide")
	}
}

func TestQuit(t *testing.T) {
	m, _ := setupModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

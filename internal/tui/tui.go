// Package tui implements the Bubble Tea terminal user interface for a
// review session.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/adaptsim/internal/diff"
	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

// Model is the top-level Bubble Tea model for a review session.
type Model struct {
	store *session.Store
	lc    *review.Lifecycle
	hl    *diff.Highlighter
	sess  session.Session

	// UI state
	width  int
	height int

	threadIndex int // currently selected thread

	// Response composer
	input     textinput.Model
	composing bool

	// Outcome of the last action
	status    string
	statusErr bool

	showHelp bool
}

// New creates a TUI model over a stored session. Every action is applied
// through the store, so other clients of the same store see it.
func New(store *session.Store, lc *review.Lifecycle, sess session.Session, hl *diff.Highlighter) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe how you addressed this thread"
	ti.Prompt = "› "
	ti.CharLimit = 2000

	if hl == nil {
		hl = diff.NewHighlighter("")
	}
	return Model{
		store: store,
		lc:    lc,
		hl:    hl,
		sess:  sess,
		input: ti,
	}
}

// Session returns the latest snapshot the model has seen.
func (m Model) Session() session.Session { return m.sess }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		if m.composing {
			return m.updateComposer(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp

		case key.Matches(msg, keys.Down):
			if m.threadIndex < len(m.sess.State.Threads)-1 {
				m.threadIndex++
			}

		case key.Matches(msg, keys.Up):
			if m.threadIndex > 0 {
				m.threadIndex--
			}

		case key.Matches(msg, keys.Respond):
			if _, ok := m.selected(); ok {
				m.composing = true
				m.input.Reset()
				return m, m.input.Focus()
			}

		case key.Matches(msg, keys.TestPass):
			m.recordTests(true)

		case key.Matches(msg, keys.TestFail):
			m.recordTests(false)

		case key.Matches(msg, keys.ReReview):
			m.apply("re-review requested", m.lc.RequestReReview)

		case key.Matches(msg, keys.Resolve):
			m.threadAction("resolved", m.lc.ResolveThread)

		case key.Matches(msg, keys.Dismiss):
			m.threadAction("dismissed", m.lc.DismissThread)

		case key.Matches(msg, keys.Reopen):
			m.threadAction("reopened", m.lc.ReopenThread)

		case key.Matches(msg, keys.Approve):
			m.apply("approved", m.lc.Approve)

		case key.Matches(msg, keys.Merge):
			m.apply("merged", m.lc.Merge)
		}
	}

	return m, nil
}

func (m Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.closeComposer()
		return m, nil

	case key.Matches(msg, keys.Submit):
		text := m.input.Value()
		m.closeComposer()
		if t, ok := m.selected(); ok {
			tid := t.ID
			lc := m.lc
			m.apply("response recorded", func(st review.State) (review.State, error) {
				return lc.RecordUserResponse(st, tid, text)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeComposer() {
	m.composing = false
	m.input.Blur()
	m.input.Reset()
}

func (m Model) selected() (review.Thread, bool) {
	threads := m.sess.State.Threads
	if m.threadIndex < 0 || m.threadIndex >= len(threads) {
		return review.Thread{}, false
	}
	return threads[m.threadIndex], true
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	mainHeight := m.height - 1
	if m.composing {
		mainHeight--
	}

	listWidth := m.threadListWidth()
	detailWidth := m.width - listWidth - 1

	list := m.renderThreadList(listWidth, mainHeight)
	detail := m.renderDetail(detailWidth, mainHeight)
	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)

	parts := []string{main}
	if m.composing {
		parts = append(parts, m.input.View())
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) threadListWidth() int {
	return min(max(m.width/3, 28), 48)
}

func (m Model) renderThreadList(width, height int) string {
	innerHeight := max(1, height-2)
	threads := m.sess.State.Threads

	var b strings.Builder
	if len(threads) == 0 {
		b.WriteString(threadItemClosedStyle.Render("No review threads"))
	}

	start := max(0, m.threadIndex-innerHeight+1)
	end := min(len(threads), start+innerHeight)
	for i := start; i < end; i++ {
		b.WriteString(styleThreadItem(threads[i], width-4, i == m.threadIndex))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	return threadListStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) renderDetail(width, height int) string {
	innerWidth := max(1, width-4)
	innerHeight := max(1, height-2)

	t, ok := m.selected()
	if !ok {
		return detailViewStyle.Width(width).Height(innerHeight).Render("Nothing to review")
	}

	var lines []string
	header := fmt.Sprintf("Thread %d/%d · %s · %s", m.threadIndex+1, len(m.sess.State.Threads), t.Severity, t.Status)
	lines = append(lines, detailHeaderStyle.Render(header))

	who := reviewerStyle.Render(t.ReviewerID)
	if t.ReviewerID == "" {
		who = reviewerStyle.Render("reviewer")
	}
	lines = append(lines, fmt.Sprintf("%s (%s)", who, t.Kind))
	lines = append(lines, strings.Split(lipgloss.NewStyle().Width(innerWidth).Render(t.Message), "\n")...)

	if t.Anchor != nil {
		lines = append(lines, "", detailHeaderStyle.UnsetPadding().Render(fmt.Sprintf("%s:%d", t.Anchor.File, t.Anchor.Line)))
		lines = append(lines, renderSnippet(m.hl, *t.Anchor, innerWidth)...)
	}

	lines = append(lines, "")
	switch {
	case t.Response != "":
		resp := lipgloss.NewStyle().Width(innerWidth).Render("You: " + t.Response)
		lines = append(lines, responseStyle.Render(resp))
	case t.RequiresResponse && t.Outstanding():
		lines = append(lines, severityStyle(t.Severity).Render("Needs a response (r)"))
	}
	if t.FollowUpRequested {
		lines = append(lines, helpBarStyle.Render("The reviewer will follow up on your answer."))
	}

	if len(lines) > innerHeight {
		lines = lines[:innerHeight]
	}
	return detailViewStyle.Width(width).Height(innerHeight).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatusBar() string {
	st := m.sess.State

	badge := reviewStatusStyle(st.Status).Render(" " + string(st.Status) + " ")
	left := fmt.Sprintf(" cycle %d/%d  tests: %s  open: %d",
		st.Cycle, st.Config.MaxRevisionCycles, testsLabel(st), len(st.Outstanding()))

	right := "? help "
	if m.status != "" {
		if m.statusErr {
			right = statusErrorStyle.Render(m.status) + " "
		} else {
			right = statusOKStyle.Render(m.status) + " "
		}
	}

	gap := max(0, m.width-lipgloss.Width(badge)-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return statusBarStyle.Width(m.width).Render(badge + left + strings.Repeat(" ", gap) + right)
}

func testsLabel(st review.State) string {
	switch {
	case st.TestRuns == 0:
		return "not run"
	case st.LastTestsPassed:
		return "passing"
	default:
		return "failing"
	}
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(helpHeaderStyle.Render("adaptsim review · Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, k := range keys.actionKeys() {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run starts the TUI and returns the session as it was when the user quit.
func Run(store *session.Store, lc *review.Lifecycle, sess session.Session, hl *diff.Highlighter) (session.Session, error) {
	m := New(store, lc, sess, hl)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return sess, err
	}
	if fm, ok := final.(Model); ok {
		return fm.sess, nil
	}
	return sess, nil
}

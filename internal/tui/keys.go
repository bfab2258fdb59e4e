package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Respond  key.Binding
	TestPass key.Binding
	TestFail key.Binding
	ReReview key.Binding
	Resolve  key.Binding
	Dismiss  key.Binding
	Reopen   key.Binding
	Approve  key.Binding
	Merge    key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous thread"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next thread"),
	),
	Respond: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "respond to thread"),
	),
	TestPass: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "record passing test run"),
	),
	TestFail: key.NewBinding(
		key.WithKeys("T"),
		key.WithHelp("T", "record failing test run"),
	),
	ReReview: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "request re-review"),
	),
	Resolve: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify and resolve thread"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dismiss thread"),
	),
	Reopen: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "reopen thread"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "approve"),
	),
	Merge: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "merge"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send response"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// actionKeys lists the bindings shown on the help screen, in order.
func (k keyMap) actionKeys() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Respond, k.TestPass, k.TestFail, k.ReReview,
		k.Resolve, k.Dismiss, k.Reopen, k.Approve, k.Merge, k.Help, k.Quit,
	}
}

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/adaptsim/internal/model"
)

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Thread list styles
	threadListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	threadItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	threadItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	threadItemClosedStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	// Detail pane styles
	detailViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	detailHeaderStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true).
				Padding(0, 0, 1, 0)

	reviewerStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	responseStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	anchorLineStyle = lipgloss.NewStyle().
			Background(colorBgLight)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorBgLight).
				Bold(true)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Background(colorBgLight)

	// Help
	helpHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

var severityStyles = map[model.Severity]lipgloss.Style{
	model.SeverityMinor:    lipgloss.NewStyle().Foreground(colorBlue),
	model.SeverityMajor:    lipgloss.NewStyle().Foreground(colorOrange),
	model.SeverityBlocking: lipgloss.NewStyle().Foreground(colorRed).Bold(true),
}

func severityStyle(s model.Severity) lipgloss.Style {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	return threadItemStyle
}

var reviewStatusStyles = map[model.ReviewStatus]lipgloss.Style{
	model.StatusPendingReview:    lipgloss.NewStyle().Foreground(colorYellow).Background(colorBgLight),
	model.StatusChangesRequested: lipgloss.NewStyle().Foreground(colorOrange).Background(colorBgLight).Bold(true),
	model.StatusApproved:         lipgloss.NewStyle().Foreground(colorGreen).Background(colorBgLight).Bold(true),
	model.StatusMerged:           lipgloss.NewStyle().Foreground(colorPurple).Background(colorBgLight).Bold(true),
}

func reviewStatusStyle(s model.ReviewStatus) lipgloss.Style {
	if st, ok := reviewStatusStyles[s]; ok {
		return st
	}
	return statusBarStyle
}

package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the UI readable on light terminals.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#8B80F9"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6E7681"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#3FB950"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#D29922"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F85149"}
	colorFg        = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6EDF3"}
	colorSubtle    = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#30363D"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"}
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = panelStyle.
				BorderForeground(colorPrimary)

	// Timer panel on the tasks view
	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Align(lipgloss.Center)

	timerRunningStyle = timerStyle.
				Foreground(colorSuccess)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	accentStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorFg)
	doneItemStyle     = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
)

// ratingStyles colour the efficiency rating the same way the score bands are
// defined: excellent, good, everything else.
var ratingStyles = map[string]lipgloss.Style{
	"excellent":         successStyle,
	"good":              warningStyle,
	"needs improvement": errorStyle,
}

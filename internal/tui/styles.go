package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	gatePane = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	threadPane = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	metaStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	timeStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).PaddingLeft(1)
	userContentStyle    = lipgloss.NewStyle().PaddingLeft(2)
)

package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy  = lipgloss.Color("#1B2A49")
	ColorBlue  = lipgloss.Color("#4A9EFF")
	ColorGreen = lipgloss.Color("#49E209")
	ColorRed   = lipgloss.Color("#FF5F5F")
	ColorGray  = lipgloss.Color("#7F8A99")
	ColorWhite = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 2)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	cardValueStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorNavy).
			Bold(true).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorRed).
			Foreground(ColorRed).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorGray)

	statusLineStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	startedBarStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	queuedBarStyle  = lipgloss.NewStyle().Foreground(ColorBlue)
)

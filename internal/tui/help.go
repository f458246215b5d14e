package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/jobwatch/internal/jobstatus"
)

// HelpPageID is the page ID of the help screen.
const HelpPageID = "help"

const helpText = `The view loads queue state once each time it is opened.
Press r to open it again with a fresh fetch.

COUNTERS:
  Started Jobs   - jobs currently being worked, across all queues
  Queued Jobs    - jobs waiting to be picked up, across all queues

TABS:
  Queues         - started and queued counts for each queue
  Other Jobs     - every started job, grouped by queue`

// HelpPage lists key bindings and explains the jobs view.
type HelpPage struct {
	keys     KeyMap
	help     help.Model
	returnTo string
}

// NewHelpPage creates the help page. Closing it returns to returnTo.
func NewHelpPage(returnTo string) *HelpPage {
	h := help.New()
	h.ShowAll = true
	return &HelpPage{
		keys:     DefaultKeyMap(),
		help:     h,
		returnTo: returnTo,
	}
}

func (p *HelpPage) ID() string    { return HelpPageID }
func (p *HelpPage) Init() tea.Cmd { return nil }

func (p *HelpPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, nil
	}
	switch {
	case key.Matches(keyMsg, p.keys.ForceQuit), key.Matches(keyMsg, p.keys.Quit):
		return tea.Quit, nil
	case key.Matches(keyMsg, p.keys.Escape), key.Matches(keyMsg, p.keys.Help):
		return nil, &PageNav{PageID: p.returnTo}
	}
	return nil, nil
}

func (p *HelpPage) View(width, height int) string {
	header := lipgloss.NewStyle().
		Foreground(ColorBlue).
		Bold(true).
		Render(jobstatus.JobsRoute.Title + " Help")

	statusBar := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render("?/h/ESC: Close | q: Quit")

	modal := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		helpText,
		"",
		p.help.View(p.keys),
		"",
		statusBar,
	)

	framed := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Padding(1, 2).
		Render(modal)

	if width <= 0 || height <= 0 {
		return framed
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, framed)
}

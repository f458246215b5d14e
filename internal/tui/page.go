package tui

import tea "github.com/charmbracelet/bubbletea"

// Page represents a top-level screen in the TUI (jobs, help, etc.).
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// Unmounter is implemented by pages that hold work tied to their activation.
// The App calls Unmount when it navigates away from the page.
type Unmounter interface {
	Unmount()
}

// PageNav is returned from Update to request a page switch.
type PageNav struct {
	PageID string
	Params interface{}
}

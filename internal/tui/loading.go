package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

func newLoadingSpinner() spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorGray)),
	)
}

// renderLoadingPlaceholder renders the spinner frame centered in the area.
func renderLoadingPlaceholder(frame string, width, height int) string {
	loadingStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	text := loadingStyle.Render(frame + " Loading...")
	if width <= 0 || height <= 0 {
		return text
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}

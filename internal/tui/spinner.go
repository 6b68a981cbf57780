package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadingIndicator is a spinner with an optional message
type LoadingIndicator struct {
	spinner spinner.Model
	message string
	styles  styles
}

// NewLoadingIndicator creates a new loading indicator
func NewLoadingIndicator(message string) *LoadingIndicator {
	st := newStyles()
	return &LoadingIndicator{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(st.spinner),
		),
		message: message,
		styles:  st,
	}
}

// SetMessage updates the loading message
func (l *LoadingIndicator) SetMessage(message string) {
	l.message = message
}

// Tick starts the spinner animation
func (l *LoadingIndicator) Tick() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the animation when msg is one of this spinner's ticks
func (l *LoadingIndicator) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// View renders the loading indicator
func (l *LoadingIndicator) View() string {
	if l.message == "" {
		return l.spinner.View()
	}
	return fmt.Sprintf("%s %s", l.spinner.View(), l.styles.subtitle.Render(l.message))
}

// LoadingOverlay creates a centered loading overlay
func LoadingOverlay(width, height int, indicator *LoadingIndicator) string {
	content := indicator.View()
	if width <= 0 || height <= 0 {
		return "\n  " + content
	}

	hint := indicator.styles.help.Render("[ctrl+c para salir]")
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(fmt.Sprintf("%s\n\n%s", content, hint))
}

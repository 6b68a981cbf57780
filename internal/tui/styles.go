package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title       lipgloss.Style
	subtitle    lipgloss.Style
	header      lipgloss.Style
	label       lipgloss.Style
	button      lipgloss.Style
	buttonOff   lipgloss.Style
	link        lipgloss.Style
	errorText   lipgloss.Style
	infoText    lipgloss.Style
	section     lipgloss.Style
	ideaContent lipgloss.Style
	ideaDate    lipgloss.Style
	ideaCard    lipgloss.Style
	empty       lipgloss.Style
	help        lipgloss.Style
	spinner     lipgloss.Style
	form        lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		subtitle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("63")).Padding(0, 1),
		label:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		button:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("63")).Padding(0, 2),
		buttonOff:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("60")).Padding(0, 2),
		link:        lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		errorText:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		infoText:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		section:     lipgloss.NewStyle().Bold(true).MarginTop(1).Foreground(lipgloss.Color("255")),
		ideaContent: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		ideaDate:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		ideaCard:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
		empty:       lipgloss.NewStyle().Faint(true).Italic(true),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		spinner:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		form:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2),
	}
}

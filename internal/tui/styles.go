package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorPurple    = lipgloss.Color("#8524a6")
	colorGreen     = lipgloss.Color("#00FF00")
	colorYellow    = lipgloss.Color("#FFFF00")
	colorRed       = lipgloss.Color("#FF0000")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			MarginTop(1).
			MarginBottom(1)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorGray).
			Padding(0)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	fullStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	openStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorPurple)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray).
			Italic(true).
			MarginTop(1)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorGray).
		BorderBottom(true).
		Bold(true).
		Foreground(colorWhite)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorPurple).
		Bold(false)
	s.Cell = s.Cell.Foreground(colorLightGray)

	return s
}

const logo = `
  ┌─┐┬ ┬┌─┐┬─┐┌─┐┌┬┐  ┌─┐┌─┐┌┐┌┬  ┬┌─┐┌─┐
  └─┐├─┤├─┤├┬┘├┤  ││  │  ├─┤│││└┐┌┘├─┤└─┐
  └─┘┴ ┴┴ ┴┴└─└─┘─┴┘  └─┘┴ ┴┘└┘ └┘ ┴ ┴└─┘
`

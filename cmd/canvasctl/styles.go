package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			MarginBottom(1)

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	reasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8524a6")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

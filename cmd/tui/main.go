package main

import (
	"fmt"
	"os"

	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
)

func main() {
	cfg, err := config.LoadClientEnvironment()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Println("canvas monitor needs a terminal")
		os.Exit(1)
	}

	width, height, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		width, height = 0, 0
	}

	app := tui.NewApp(cfg.Endpoint, width, height)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running canvas monitor: %v\n", err)
		os.Exit(1)
	}
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/documents"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

var backupColumns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "Taken", Width: 20},
	{Title: "Reason", Width: 20},
	{Title: "Strokes", Width: 8},
	{Title: "Member", Width: 16},
}

func NewApp(endpoint string, width, height int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	t := table.New(
		table.WithColumns(backupColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	m := &Model{
		client:  NewClient(endpoint),
		loading: true,
		spinner: s,
		table:   t,
	}
	m.resize(width, height)

	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case SnapshotMsg:
		m.loading = false
		m.err = nil
		m.canvas = msg.Canvas
		m.backups = msg.Backups
		m.updated = msg.At
		m.table.SetRows(backupRows(msg.Backups))
		return m, tick()

	case ErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, tick()

	case TickMsg:
		return m, m.fetch()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")

	switch {
	case m.canvas == nil && m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("  cannot reach server: %v", m.err)))
		b.WriteString("\n")

	case m.canvas == nil:
		b.WriteString(fmt.Sprintf("  %s loading canvas...\n", m.spinner.View()))

	default:
		b.WriteString(m.occupancyLine())
		b.WriteString("\n")
		b.WriteString(m.summary())
		b.WriteString(borderStyle.Render(m.table.View()))
		b.WriteString("\n")

		status := "updated " + m.updated.Local().Format(time.TimeOnly)
		if m.loading {
			status = m.spinner.View() + " refreshing"
		}
		if m.err != nil {
			status = errorStyle.Render(fmt.Sprintf("last refresh failed: %v", m.err))
		}
		b.WriteString(infoStyle.Render("  " + status))
	}

	b.WriteString(helpStyle.Render("\n  r refresh • ↑/↓ browse backups • q quit"))

	return b.String()
}

func (m *Model) occupancyLine() string {
	c := m.canvas

	state := openStyle.Render("open")
	if c.RoomFull {
		state = fullStyle.Render("full")
	}

	return fmt.Sprintf("  %d/%d members  %s", c.MemberCount, c.Capacity, state)
}

// renders the canvas summary as markdown through glamour; falls back to plain text
func (m *Model) summary() string {
	md := summaryMarkdown(m)

	if m.renderer == nil {
		return md + "\n"
	}

	out, err := m.renderer.Render(md)
	if err != nil {
		return md + "\n"
	}

	return out
}

func summaryMarkdown(m *Model) string {
	c := m.canvas

	host := "_nobody_"
	if c.Host != "" {
		host = "`" + c.Host + "`"
	}

	strokes := 0
	if c.Canvas != nil {
		strokes = len(c.Canvas.Strokes)
	}

	var b strings.Builder
	b.WriteString("## Canvas\n\n")
	fmt.Fprintf(&b, "- **Host:** %s\n", host)
	fmt.Fprintf(&b, "- **Strokes:** %d\n", strokes)

	if !c.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "- **Last stroke:** %s\n", c.LastUpdated.Local().Format(time.DateTime))
	}

	if m.backups != nil {
		fmt.Fprintf(&b, "- **Backups:** %d\n", m.backups.TotalBackups)
	}

	return b.String()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	if width <= 0 {
		return
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.table.SetWidth(min(width-4, 80))
	if height > 24 {
		m.table.SetHeight(height - 22)
	}
}

func (m *Model) fetch() tea.Cmd {
	client := m.client

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		c, err := client.Canvas(ctx)
		if err != nil {
			return ErrorMsg{err: err}
		}

		backups, err := client.Backups(ctx, backupLimit)
		if err != nil {
			return ErrorMsg{err: err}
		}

		return SnapshotMsg{Canvas: c, Backups: backups, At: time.Now()}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func backupRows(list *documents.BackupList) []table.Row {
	if list == nil {
		return nil
	}

	rows := make([]table.Row, 0, len(list.Backups))
	for i, b := range list.Backups {
		member := b.MemberID
		if b.WasHost {
			member += " (host)"
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i),
			b.Timestamp.Local().Format(time.DateTime),
			string(b.Reason),
			fmt.Sprintf("%d", b.StrokeCount),
			member,
		})
	}

	return rows
}

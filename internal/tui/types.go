package tui

import (
	"net/http"
	"time"

	"codeberg.org/sharedcanvas/server/api/rest/canvas"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/glamour"
)

const (
	requestTimeout = 10 * time.Second
	pollInterval   = 3 * time.Second
	backupLimit    = 20
)

// talks to the canvas REST API
type Client struct {
	endpoint   string
	opsToken   string
	httpClient *http.Client
}

// non-200 reply from the server
type APIError struct {
	Status  int
	Code    string
	Message string
}

// monitor screen model
type Model struct {
	client   *Client
	width    int
	height   int
	loading  bool
	err      error
	canvas   *canvas.CanvasResponse
	backups  *documents.BackupList
	updated  time.Time
	spinner  spinner.Model
	table    table.Model
	renderer *glamour.TermRenderer
}

// sent when a poll completes
type SnapshotMsg struct {
	Canvas  *canvas.CanvasResponse
	Backups *documents.BackupList
	At      time.Time
}

// sent when a poll fails
type ErrorMsg struct {
	err error
}

// sent on every poll tick
type TickMsg time.Time

package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/sharedcanvas/server/api/rest/canvas"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/errors"
	"codeberg.org/sharedcanvas/server/internal/router"
	"codeberg.org/sharedcanvas/server/internal/storage"
	"codeberg.org/sharedcanvas/server/internal/tui"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serves the canvas ops API over docs on a loopback listener
func newAPI(t *testing.T, docs *documents.Repository, opsToken string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ops := canvas.OpsOnly(opsToken)

	engine := gin.New()
	table := router.Table{
		{Method: http.MethodGet, Path: "/api/v1/canvas/backups", Handlers: []gin.HandlerFunc{canvas.ListBackupsHandler(docs)}},
		{Method: http.MethodPost, Path: "/api/v1/canvas/restore", Handlers: []gin.HandlerFunc{ops, canvas.RestoreHandler(docs)}},
		{Method: http.MethodPost, Path: "/api/v1/canvas/reset", Handlers: []gin.HandlerFunc{ops, canvas.ResetHandler(docs)}},
	}
	require.NoError(t, table.Register(engine))

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return srv.URL
}

func seeded(t *testing.T) *documents.Repository {
	t.Helper()

	ctx := context.Background()
	docs := documents.NewRepository(storage.NewMemoryStore())

	for _, color := range []string{"red", "blue"} {
		_, err := docs.AppendStroke(ctx, "alice", map[string]any{"x": 1, "y": 1, "color": color})
		require.NoError(t, err)

		_, err = docs.Backup(ctx, documents.BackupRequest{Reason: documents.ReasonMemberLeft, MemberID: "alice", WasHost: true})
		require.NoError(t, err)
	}

	return docs
}

func TestListBackups(t *testing.T) {
	api := tui.NewClient(newAPI(t, seeded(t), ""))

	var out bytes.Buffer
	require.NoError(t, ListBackups(context.Background(), &out, api, config.Flags{Limit: 10}))

	text := out.String()
	assert.Contains(t, text, "2 total")
	assert.Contains(t, text, "[0]")
	assert.Contains(t, text, "[1]")
	assert.Contains(t, text, string(documents.ReasonMemberLeft))
	assert.Contains(t, text, "member alice")
}

func TestListBackups_Empty(t *testing.T) {
	api := tui.NewClient(newAPI(t, documents.NewRepository(storage.NewMemoryStore()), ""))

	var out bytes.Buffer
	require.NoError(t, ListBackups(context.Background(), &out, api, config.Flags{Limit: 10}))
	assert.Contains(t, out.String(), "no backups yet")
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	docs := seeded(t)
	api := tui.NewClient(newAPI(t, docs, ""))

	// index 1 is the older backup with a single stroke
	var out bytes.Buffer
	require.NoError(t, Restore(ctx, &out, api, config.Flags{Index: 1}))
	assert.Contains(t, out.String(), "restored backup 1: 1 strokes")

	doc, err := docs.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Strokes, 1)

	err = Restore(ctx, &out, api, config.Flags{Index: 42})

	var apiErr *tui.APIError
	require.True(t, stderrors.As(err, &apiErr), "%v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, errors.CodeNotFound, apiErr.Code)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	docs := seeded(t)
	api := tui.NewClient(newAPI(t, docs, ""))

	var out bytes.Buffer
	assert.ErrorIs(t, Reset(ctx, &out, api, config.Flags{}), ErrNotConfirmed)

	doc, err := docs.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Strokes, 2)

	require.NoError(t, Reset(ctx, &out, api, config.Flags{Yes: true}))

	doc, err = docs.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Strokes)

	backups, err := docs.Backups(ctx)
	require.NoError(t, err)
	assert.Equal(t, documents.ReasonPreReset, backups[0].Reason)
}

func TestReset_OpsToken(t *testing.T) {
	ctx := context.Background()
	docs := seeded(t)
	endpoint := newAPI(t, docs, "s3cret")

	var out bytes.Buffer
	err := Reset(ctx, &out, tui.NewClient(endpoint), config.Flags{Yes: true})

	var apiErr *tui.APIError
	require.True(t, stderrors.As(err, &apiErr), "%v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	doc, err := docs.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Strokes, 2)

	require.NoError(t, Reset(ctx, &out, tui.NewClient(endpoint).WithOpsToken("s3cret"), config.Flags{Yes: true}))

	doc, err = docs.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Strokes)
}

// a restore issued while members keep drawing is ordered against their strokes
func TestRestore_ConcurrentStrokesAreKept(t *testing.T) {
	ctx := context.Background()
	docs := seeded(t)
	api := tui.NewClient(newAPI(t, docs, ""))

	done := make(chan error, 1)
	go func() {
		for range 20 {
			if _, err := docs.AppendStroke(ctx, "bob", map[string]any{"x": 2, "y": 2, "color": "green"}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	var out bytes.Buffer
	require.NoError(t, Restore(ctx, &out, api, config.Flags{Index: 1}))
	require.NoError(t, <-done)

	doc, err := docs.Current(ctx)
	require.NoError(t, err)

	// the restored red stroke plus every green stroke accepted after the restore landed
	require.NotEmpty(t, doc.Strokes)
	assert.Equal(t, "red", doc.Strokes[0].Payload["color"])

	backups, err := docs.Backups(ctx)
	require.NoError(t, err)

	var before int
	for _, b := range backups {
		if b.Reason == documents.ReasonPreRestore {
			before = b.StrokeCount
		}
	}

	// strokes accepted before the restore are in its pre_restore backup, the rest are on the canvas
	assert.Equal(t, 2+20, before+len(doc.Strokes)-1)
}

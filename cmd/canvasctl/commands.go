package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"codeberg.org/sharedcanvas/server/api/rest/canvas"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

var ErrNotConfirmed = errors.New("reset needs -yes")

// the server operations canvasctl drives; the server applies them so they
// serialize with live strokes
type CanvasAPI interface {
	Backups(ctx context.Context, limit int) (*documents.BackupList, error)
	Restore(ctx context.Context, index int) (*canvas.RestoreCanvasResponse, error)
	Reset(ctx context.Context) (*canvas.ResetCanvasResponse, error)
}

// prints the newest backups, one per line, with their restore index
func ListBackups(ctx context.Context, w io.Writer, api CanvasAPI, flags config.Flags) error {
	list, err := api.Backups(ctx, flags.Limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Canvas backups (%d total, %d strokes on canvas)", list.TotalBackups, list.CurrentStrokeCount)))

	if len(list.Backups) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no backups yet"))
		return nil
	}

	for i, b := range list.Backups {
		fmt.Fprintln(w, backupLine(i, b))
	}

	return nil
}

// replaces the canvas with the backup at flags.Index
func Restore(ctx context.Context, w io.Writer, api CanvasAPI, flags config.Flags) error {
	resp, err := api.Restore(ctx, flags.Index)
	if err != nil {
		return err
	}

	logger.Info("canvas restored", "index", resp.Index, "stroke_count", resp.StrokeCount)
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("restored backup %d: %d strokes", resp.Index, resp.StrokeCount)))

	return nil
}

// clears the canvas once confirmed
func Reset(ctx context.Context, w io.Writer, api CanvasAPI, flags config.Flags) error {
	if !flags.Yes {
		return ErrNotConfirmed
	}

	if _, err := api.Reset(ctx); err != nil {
		return err
	}

	logger.Info("canvas reset")
	fmt.Fprintln(w, successStyle.Render("canvas cleared, previous state kept as a backup"))

	return nil
}

func backupLine(index int, b documents.Backup) string {
	line := fmt.Sprintf("%s  %s  %s  %s",
		indexStyle.Render(fmt.Sprintf("[%d]", index)),
		b.Timestamp.Local().Format(time.DateTime),
		reasonStyle.Render(string(b.Reason)),
		fmt.Sprintf("%d strokes", b.StrokeCount),
	)

	if b.MemberID != "" {
		line += mutedStyle.Render("  member " + b.MemberID)
	}

	if b.WasHost {
		line += mutedStyle.Render(" (host)")
	}

	return line
}

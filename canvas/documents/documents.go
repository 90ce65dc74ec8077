package documents

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"codeberg.org/sharedcanvas/server/internal/storage"
	"github.com/google/uuid"
)

// reads and writes the canvas document, its backups and its history
type Repository struct {
	store              storage.Store
	namespace          string
	checkpointInterval int
	now                func() time.Time

	// serializes read-modify-write of the current document
	writeMu sync.Mutex
}

type Option func(*Repository)

func WithNamespace(namespace string) Option {
	return func(r *Repository) {
		r.namespace = namespace
	}
}

// sets how many strokes separate checkpoint backups; values < 1 disable checkpoints
func WithCheckpointInterval(n int) Option {
	return func(r *Repository) {
		r.checkpointInterval = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// creates a new documents repository
func NewRepository(store storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store:              store,
		namespace:          DefaultNamespace,
		checkpointInterval: DefaultCheckpointInterval,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// returns the current document, or an empty one when nothing is stored
func (r *Repository) Current(ctx context.Context) (*Document, error) {
	doc, err := storage.GetOrDefault(ctx, r.store, r.namespace, CollectionCurrent, emptyDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to load current canvas: %w", err)
	}

	if doc.Strokes == nil {
		doc.Strokes = []Stroke{}
	}

	return doc, nil
}

// stamps and appends one stroke, overwriting the current document before returning.
// a checkpoint backup follows every checkpointInterval strokes.
func (r *Repository) AppendStroke(ctx context.Context, memberID string, payload map[string]any) (*AppendResult, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()

	stroke := Stroke{
		Payload:   maps.Clone(payload),
		Timestamp: now,
		MemberID:  memberID,
	}
	delete(stroke.Payload, fieldTimestamp)
	delete(stroke.Payload, fieldMemberID)

	doc := current.clone()
	doc.Strokes = append(doc.Strokes, stroke)
	doc.StrokeCount = len(doc.Strokes)
	doc.LastUpdated = now
	doc.SavedManually = false

	if err := r.store.Set(ctx, r.namespace, CollectionCurrent, doc); err != nil {
		return nil, fmt.Errorf("failed to save current canvas: %w", err)
	}

	result := &AppendResult{
		Stroke:      stroke,
		StrokeCount: doc.StrokeCount,
	}

	if r.checkpointInterval > 0 && doc.StrokeCount%r.checkpointInterval == 0 {
		result.Checkpointed = true
		result.CheckpointErr = r.appendBackup(ctx, doc, BackupRequest{
			Reason: ReasonPeriodicCheckpoint,
			Detail: fmt.Sprintf("periodic backup at %d strokes", doc.StrokeCount),
		}, now)
	}

	return result, nil
}

// appends a snapshot of the current document; returns false without writing when it is empty
func (r *Repository) Backup(ctx context.Context, req BackupRequest) (bool, error) {
	doc, err := r.Current(ctx)
	if err != nil {
		return false, err
	}

	if doc.IsEmpty() {
		return false, nil
	}

	if err := r.appendBackup(ctx, doc, req, r.now()); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Repository) appendBackup(ctx context.Context, doc *Document, req BackupRequest, at time.Time) error {
	backup := Backup{
		ID:            uuid.NewString(),
		Strokes:       doc.Strokes,
		Timestamp:     at,
		StrokeCount:   len(doc.Strokes),
		Reason:        req.Reason,
		Detail:        req.Detail,
		MemberID:      req.MemberID,
		WasHost:       req.WasHost,
		ServerRestart: req.ServerRestart,
	}

	if err := r.store.Append(ctx, r.namespace, CollectionBackups, backup); err != nil {
		return fmt.Errorf("failed to append %s backup: %w", req.Reason, err)
	}

	return nil
}

// returns every stored backup, newest first
func (r *Repository) Backups(ctx context.Context) ([]Backup, error) {
	backups, err := storage.GetOrDefault(ctx, r.store, r.namespace, CollectionBackups, []Backup{})
	if err != nil {
		return nil, fmt.Errorf("failed to load backups: %w", err)
	}

	// later writes win ties
	slices.Reverse(backups)
	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// returns the most recent limit backups with totals; limit < 1 returns all
func (r *Repository) ListBackups(ctx context.Context, limit int) (*BackupList, error) {
	backups, err := r.Backups(ctx)
	if err != nil {
		return nil, err
	}

	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}

	total := len(backups)
	if limit > 0 && len(backups) > limit {
		backups = backups[:limit]
	}

	return &BackupList{
		Backups:            backups,
		TotalBackups:       total,
		CurrentStrokeCount: len(current.Strokes),
	}, nil
}

// overwrites the current document with strokes supplied out of band.
// the prior state is backed up first and a history record is appended after.
func (r *Repository) SaveManual(ctx context.Context, strokes []Stroke) (*Document, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if strokes == nil {
		strokes = []Stroke{}
	}

	if _, err := r.Backup(ctx, BackupRequest{Reason: ReasonPreManualSave, Detail: "before manual save"}); err != nil {
		return nil, err
	}

	now := r.now()
	doc := &Document{
		Strokes:       strokes,
		LastUpdated:   now,
		StrokeCount:   len(strokes),
		SavedManually: true,
	}

	if err := r.store.Set(ctx, r.namespace, CollectionCurrent, doc); err != nil {
		return nil, fmt.Errorf("failed to save current canvas: %w", err)
	}

	record := HistoryRecord{
		Strokes:     strokes,
		Timestamp:   now,
		StrokeCount: len(strokes),
	}

	if err := r.store.Append(ctx, r.namespace, CollectionHistory, record); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	return doc, nil
}

// returns every manual save record in write order
func (r *Repository) History(ctx context.Context) ([]HistoryRecord, error) {
	history, err := storage.GetOrDefault(ctx, r.store, r.namespace, CollectionHistory, []HistoryRecord{})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return history, nil
}

// replaces the current document with the backup at index in newest-first order
func (r *Repository) Restore(ctx context.Context, index int) (*Document, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	backups, err := r.Backups(ctx)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(backups) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBackupIndex, index, len(backups))
	}

	source := backups[index]

	if _, err := r.Backup(ctx, BackupRequest{
		Reason: ReasonPreRestore,
		Detail: "before restoring backup " + source.ID,
	}); err != nil {
		return nil, err
	}

	doc := &Document{
		Strokes:     source.Strokes,
		LastUpdated: r.now(),
		StrokeCount: len(source.Strokes),
	}

	if doc.Strokes == nil {
		doc.Strokes = []Stroke{}
	}

	if err := r.store.Set(ctx, r.namespace, CollectionCurrent, doc); err != nil {
		return nil, fmt.Errorf("failed to save current canvas: %w", err)
	}

	return doc, nil
}

// clears the current document after backing it up; backups and history are kept
func (r *Repository) Reset(ctx context.Context) (*Document, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.Backup(ctx, BackupRequest{Reason: ReasonPreReset, Detail: "before reset"}); err != nil {
		return nil, err
	}

	doc := &Document{
		Strokes:     []Stroke{},
		LastUpdated: r.now(),
	}

	if err := r.store.Set(ctx, r.namespace, CollectionCurrent, doc); err != nil {
		return nil, fmt.Errorf("failed to save current canvas: %w", err)
	}

	return doc, nil
}

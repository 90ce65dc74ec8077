package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// store layout
const (
	DefaultNamespace = "collaborative-canvas"

	CollectionCurrent = "current_canvas"
	CollectionBackups = "canvas_backups"
	CollectionHistory = "canvas_history"
)

// every Nth accepted stroke writes a checkpoint backup
const DefaultCheckpointInterval = 50

// stroke fields owned by the server
const (
	fieldTimestamp = "timestamp"
	fieldMemberID  = "member_id"
)

// why a backup snapshot was taken
type BackupReason string

const (
	ReasonStartup            BackupReason = "startup"
	ReasonMemberLeft         BackupReason = "member_left"
	ReasonPeriodicCheckpoint BackupReason = "periodic_checkpoint"
	ReasonPreManualSave      BackupReason = "pre_manual_save"
	ReasonPreRestore         BackupReason = "pre_restore"
	ReasonPreReset           BackupReason = "pre_reset"
)

var (
	ErrInvalidStroke = errors.New("invalid stroke")
	ErrBackupIndex   = errors.New("backup index out of range")
)

// one accepted update to the shared canvas.
// serialized as the client payload with server-owned timestamp and member_id merged in.
type Stroke struct {
	Payload   map[string]any
	Timestamp time.Time
	MemberID  string
}

func (s Stroke) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Payload)+2)
	maps.Copy(out, s.Payload)

	out[fieldTimestamp] = s.Timestamp
	out[fieldMemberID] = s.MemberID

	return json.Marshal(out)
}

func (s *Stroke) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Payload = make(map[string]any, len(raw))
	s.Timestamp = time.Time{}
	s.MemberID = ""

	for k, v := range raw {
		switch k {
		case fieldTimestamp:
			str, _ := v.(string)
			if str == "" {
				continue
			}

			ts, err := time.Parse(time.RFC3339Nano, str)
			if err != nil {
				return fmt.Errorf("stroke timestamp: %w", err)
			}
			s.Timestamp = ts

		case fieldMemberID:
			s.MemberID, _ = v.(string)

		default:
			s.Payload[k] = v
		}
	}

	return nil
}

// the authoritative current state of the canvas
type Document struct {
	Strokes       []Stroke  `json:"strokes"`
	LastUpdated   time.Time `json:"last_updated,omitzero"`
	StrokeCount   int       `json:"stroke_count"`
	SavedManually bool      `json:"saved_manually,omitempty"`
}

func (d *Document) IsEmpty() bool {
	return d == nil || len(d.Strokes) == 0
}

// returns a copy whose stroke slice can be appended to without aliasing d
func (d *Document) clone() *Document {
	c := *d
	c.Strokes = make([]Stroke, len(d.Strokes), len(d.Strokes)+1)
	copy(c.Strokes, d.Strokes)
	return &c
}

func emptyDocument() *Document {
	return &Document{Strokes: []Stroke{}}
}

// full snapshot of the stroke list at a point in time; never mutated after append
type Backup struct {
	ID            string       `json:"id"`
	Strokes       []Stroke     `json:"strokes"`
	Timestamp     time.Time    `json:"timestamp"`
	StrokeCount   int          `json:"stroke_count"`
	Reason        BackupReason `json:"reason"`
	Detail        string       `json:"detail,omitempty"`
	MemberID      string       `json:"member_id,omitempty"`
	WasHost       bool         `json:"was_host,omitempty"`
	ServerRestart bool         `json:"server_restart,omitempty"`
}

// record written by a manual save
type HistoryRecord struct {
	Strokes     []Stroke  `json:"strokes"`
	Timestamp   time.Time `json:"timestamp"`
	StrokeCount int       `json:"stroke_count"`
}

// describes a backup to take of the current document
type BackupRequest struct {
	Reason        BackupReason
	Detail        string
	MemberID      string
	WasHost       bool
	ServerRestart bool
}

// outcome of AppendStroke
type AppendResult struct {
	Stroke      Stroke
	StrokeCount int

	// set when this stroke landed on a checkpoint boundary
	Checkpointed bool

	// non-nil when the checkpoint backup could not be written; the stroke itself is durable
	CheckpointErr error
}

// most recent backups plus totals
type BackupList struct {
	Backups            []Backup `json:"backups"`
	TotalBackups       int      `json:"total_backups"`
	CurrentStrokeCount int      `json:"current_stroke_count"`
}

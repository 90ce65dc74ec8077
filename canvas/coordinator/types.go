package coordinator

import (
	"context"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
)

const (
	DefaultRoomID          = "main_canvas"
	DefaultCapacity        = 8
	DefaultStaleAfter      = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute

	// reason attached to member_evicted
	EvictionReasonInactivity = "inactivity"
)

type Config struct {
	RoomID   string
	Capacity int

	// members joined longer ago than this are removed by the disconnect fallback
	StaleAfter time.Duration

	// how often the cleanup service looks for idle, disconnected members
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoomID:          DefaultRoomID,
		Capacity:        DefaultCapacity,
		StaleAfter:      DefaultStaleAfter,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// delivers coordinator events to connections; implemented by the websocket hub
type Notifier interface {
	// sends evt to every connection bound to roomID except excludeMemberID
	Broadcast(roomID string, evt Event, excludeMemberID string)

	// sends evt to the connection bound to memberID, if any
	Notify(memberID string, evt Event)

	// unbinds the connection of a member that is no longer in the room.
	// called with the coordinator lock held; must not call back into the coordinator
	Release(memberID string)

	IsConnected(memberID string) bool
}

// document operations the coordinator depends on
type DocumentStore interface {
	Current(ctx context.Context) (*documents.Document, error)
	AppendStroke(ctx context.Context, memberID string, payload map[string]any) (*documents.AppendResult, error)
	Backup(ctx context.Context, req documents.BackupRequest) (bool, error)
}

type JoinRequest struct {
	MemberID string
	Name     string
	Metadata map[string]any
}

type Occupancy struct {
	RoomID      string `json:"room_id"`
	MemberCount int    `json:"member_count"`
	Capacity    int    `json:"capacity"`
	RoomFull    bool   `json:"room_full"`
	Host        string `json:"host,omitempty"`
}

type JoinResult struct {
	Member   *rooms.Member
	IsHost   bool
	Evicted  string
	Document *documents.Document
	Occupancy
}

type LeaveResult struct {
	// false when the member was already gone
	Removed       bool
	WasHost       bool
	NewHost       string
	RoomRemoved   bool
	BackupWritten bool
	Occupancy
}

type StrokeResult struct {
	Stroke       documents.Stroke
	StrokeCount  int
	Checkpointed bool
}

type StateResult struct {
	Document *documents.Document
	Occupancy
}

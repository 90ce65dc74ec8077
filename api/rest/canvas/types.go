package canvas

import (
	"time"

	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
)

// current canvas plus who is drawing on it
type CanvasResponse struct {
	Canvas      *documents.Document `json:"canvas"`
	MemberCount int                 `json:"member_count"`
	Capacity    int                 `json:"capacity"`
	RoomFull    bool                `json:"room_full"`
	Host        string              `json:"host,omitempty"`
	LastUpdated time.Time           `json:"last_updated,omitzero"`
}

type SaveCanvasRequest struct {
	Strokes *[]documents.Stroke `json:"strokes"`
}

type SaveCanvasResponse struct {
	Success     bool      `json:"success"`
	SavedAt     time.Time `json:"saved_at"`
	StrokeCount int       `json:"stroke_count"`
}

type RestoreCanvasRequest struct {
	// position in the newest-first backup list
	Index *int `json:"index"`
}

type RestoreCanvasResponse struct {
	Success     bool      `json:"success"`
	Index       int       `json:"index"`
	RestoredAt  time.Time `json:"restored_at"`
	StrokeCount int       `json:"stroke_count"`
}

type ResetCanvasRequest struct {
	Confirm bool `json:"confirm"`
}

type ResetCanvasResponse struct {
	Success bool      `json:"success"`
	ResetAt time.Time `json:"reset_at"`
}

type RoomsResponse struct {
	Stats rooms.Stats     `json:"stats"`
	Rooms []rooms.Summary `json:"rooms"`
}

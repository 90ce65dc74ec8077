package rooms

import "time"

// informational room lifecycle state
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// key in Room data holding the host member id
const DataKeyHost = "host"

// a participant currently in a room
type Member struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	JoinedAt     time.Time      `json:"joined_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// point-in-time view of a room for serialization
type Summary struct {
	ID          string         `json:"room_id"`
	Capacity    int            `json:"capacity"`
	MemberCount int            `json:"member_count"`
	MemberIDs   []string       `json:"members"`
	Host        string         `json:"host,omitempty"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	Data        map[string]any `json:"data"`
}

// aggregate counters across all rooms in a manager
type Stats struct {
	TotalRooms   int `json:"total_rooms"`
	WaitingRooms int `json:"waiting_rooms"`
	ActiveRooms  int `json:"active_rooms"`
	TotalMembers int `json:"total_members"`
}

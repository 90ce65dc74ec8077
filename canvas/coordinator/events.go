package coordinator

import (
	"codeberg.org/sharedcanvas/server/canvas/documents"
)

// outbound event names
const (
	EventMemberJoined      = "member_joined"
	EventMemberLeft        = "member_left"
	EventMemberEvicted     = "member_evicted"
	EventNewHostAssigned   = "new_host_assigned"
	EventUpdateReceived    = "update_received"
	EventOccupancyChanged  = "occupancy_changed"
	EventJoinAccepted      = "join_accepted"
	EventUpdateAcknowledge = "update_acknowledged"
	EventStateSnapshot     = "state_snapshot"
	EventLeaveAcknowledged = "leave_acknowledged"
	EventError             = "error"
)

// a typed outbound message; Payload is serialized by the transport
type Event struct {
	Type    string
	Payload any
}

type MemberJoinedPayload struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Occupancy
}

type MemberLeftPayload struct {
	MemberID string `json:"member_id"`
	WasHost  bool   `json:"was_host"`
	NewHost  string `json:"new_host,omitempty"`
	Occupancy
}

type MemberEvictedPayload struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
	Occupancy
}

type NewHostPayload struct {
	MemberID     string `json:"member_id"`
	PreviousHost string `json:"previous_host,omitempty"`
}

type UpdateReceivedPayload struct {
	Stroke      documents.Stroke `json:"stroke"`
	StrokeCount int              `json:"stroke_count"`
}

type OccupancyChangedPayload struct {
	Removed []string `json:"removed"`
	Occupancy
}

package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/coordinator"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"github.com/gorilla/websocket"
)

// inbound message types
const (
	// is sent by a client to take a seat on the canvas
	TypeJoin = "join"

	// is sent by a member leaving the canvas
	TypeLeave = "leave"

	// carries one stroke from a member
	TypeSubmitUpdate = "submit_update"

	// asks for the current canvas (resync)
	TypeRequestState = "request_state"

	// is sent by clients to keep the connection alive
	TypePing = "ping"
)

// outbound message types owned by the transport; room events use the coordinator's names
const (
	// is sent to a client right after the upgrade
	TypeConnected = "connected"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"

	TypeError = coordinator.EventError
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512 KB

	// outbound messages buffered per client
	sendBufferSize = 256

	// inbound messages waiting for a handler per client
	inboxSize = 64

	// upper bound for one handler run, including store I/O
	handlerTimeout = 15 * time.Second
)

// hub connection limit constants
const (
	maxConnectionsPerIP = 10
)

// errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrMemberBound      = errors.New("member is bound to another connection")
	ErrClientBound      = errors.New("connection already bound to a member")
	ErrClientNotFound   = errors.New("client not found")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	ClientID  string          `json:"-"` // internal only, not sent to clients
	MemberID  string          `json:"member_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// body of a join request; member_id may also arrive on the envelope
type JoinPayload struct {
	MemberID string         `json:"member_id"`
	Name     string         `json:"name,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// answers a successful join with the full canvas
type JoinAcceptedPayload struct {
	MemberID string              `json:"member_id"`
	Name     string              `json:"name"`
	IsHost   bool                `json:"is_host"`
	Evicted  string              `json:"evicted,omitempty"`
	Canvas   *documents.Document `json:"canvas"`
	coordinator.Occupancy
}

type UpdateAcknowledgedPayload struct {
	StrokeID     string           `json:"stroke_id"`
	Stroke       documents.Stroke `json:"stroke"`
	StrokeCount  int              `json:"stroke_count"`
	Checkpointed bool             `json:"checkpointed,omitempty"`
}

type StateSnapshotPayload struct {
	Canvas *documents.Document `json:"canvas"`
	coordinator.Occupancy
}

type LeaveAcknowledgedPayload struct {
	MemberID string `json:"member_id"`
	Removed  bool   `json:"removed"`
	WasHost  bool   `json:"was_host,omitempty"`
	NewHost  string `json:"new_host,omitempty"`
	coordinator.Occupancy
}

// contains connection info sent right after the upgrade
type ConnectedPayload struct {
	ClientID string `json:"client_id"`
	RoomID   string `json:"room_id"`
	Message  string `json:"message"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// canvas room this connection talks to
	RoomID string

	// IP address of the client (for connection tracking)
	IPAddress string

	// member bound by a successful join; guarded by mu
	memberID string

	// websocket connection
	conn *websocket.Conn

	// hub reference for message routing
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// inbound messages handled in arrival order
	inbox chan *Message

	// closed when the client shuts down
	done chan struct{}

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool
}

// maintains the set of active clients and routes room events to bound members
type Hub struct {
	// registered clients by client ID
	clients map[string]*Client

	// bound clients by room ID and member ID
	rooms map[string]map[string]*Client

	// bound clients by member ID
	members map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// inbound messages read from clients
	Inbound chan *Message

	// mutex for thread-safe access to the maps above
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// channel to signal shutdown
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// closed when Run returns
	stopped chan struct{}

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per room for message ordering
	roomSequences map[string]uint64

	// callback for client disconnect with the member it was bound to ("" if none)
	onClientDisconnect func(client *Client, memberID string)
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error

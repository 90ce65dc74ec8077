package websocket

import (
	"context"
	"encoding/json"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/coordinator"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		members:       make(map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Inbound:       make(chan *Message, 256),
		handlers:      make(map[string]MessageHandler),
		shutdown:      make(chan struct{}),
		stopped:       make(chan struct{}),
		ipConnections: make(map[string]int),
		roomSequences: make(map[string]uint64),
	}
}

// builds a message with a JSON-encoded payload
func NewMessage(msgType, roomID, memberID string, payload any) (*Message, error) {
	var raw json.RawMessage

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	return &Message{
		Type:      msgType,
		RoomID:    roomID,
		MemberID:  memberID,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// sets callback to be called when a client disconnects
func (h *Hub) OnClientDisconnect(callback func(client *Client, memberID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientDisconnect = callback
}

// starts the hub's main loop
func (h *Hub) Run() {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Inbound:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a client to the hub and greets it
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	go client.processInbox(h)

	logger.Info("client registered",
		"client_id", client.ID,
		"room_id", client.RoomID,
		"ip", client.IPAddress,
	)

	connectedMsg, err := NewMessage(TypeConnected, client.RoomID, "", ConnectedPayload{
		ClientID: client.ID,
		RoomID:   client.RoomID,
		Message:  "Connected to collaborative canvas",
	})
	if err == nil {
		if sendErr := client.Send(connectedMsg); sendErr != nil {
			logger.ErrorErr(sendErr, "failed to send connected greeting",
				"client_id", client.ID,
			)
		}
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	// capture callback reference under lock
	callback := h.onClientDisconnect

	if _, exists := h.clients[client.ID]; !exists {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.ID)

	memberID := client.MemberID()
	if memberID != "" && h.members[memberID] == client {
		h.unbindLocked(memberID)
	}

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}

	client.Close()

	h.mu.Unlock()

	logger.Info("client unregistered",
		"client_id", client.ID,
		"member_id", memberID,
	)

	// coordinator cleanup may do store I/O, keep it off the hub loop
	if callback != nil {
		go callback(client, memberID)
	}
}

// routes an incoming message to its sender's inbox
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()
	sender, exists := h.clients[msg.ClientID]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"message_type", msg.Type,
		)
		return
	}

	select {
	case sender.inbox <- msg:
	case <-sender.done:
	default:
		logger.Warn("client inbox full, dropping message",
			"client_id", sender.ID,
			"message_type", msg.Type,
		)
		sender.SendError(coordinator.CodeInvalid, "too many pending messages", "")
	}
}

// runs the handler registered for msg.Type
func (h *Hub) dispatch(sender *Client, msg *Message) {
	h.mu.RLock()
	handler, exists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		// reject unhandled message types
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
		)

		sender.SendError("bad_request", "unsupported message type", "message type not recognized")
		return
	}

	if err := handler(h, sender, msg); err != nil {
		logger.ErrorErr(err, "handler error",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"member_id", sender.MemberID(),
		)

		sender.SendError(coordinator.CodeServerError, "failed to process message", err.Error())
	}
}

// ties a member to a connection so events for the client's room reach it
func (h *Hub) BindMember(client *Client, memberID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client.ID]; !exists {
		return ErrClientNotFound
	}

	if existing, ok := h.members[memberID]; ok && existing != client {
		return ErrMemberBound
	}

	if current := client.MemberID(); current != "" && current != memberID {
		return ErrClientBound
	}

	client.setMember(memberID)
	h.members[memberID] = client

	if h.rooms[client.RoomID] == nil {
		h.rooms[client.RoomID] = make(map[string]*Client)
	}
	h.rooms[client.RoomID][memberID] = client

	return nil
}

// detaches the member bound to client, if it is still the one bound
func (h *Hub) UnbindMember(client *Client, memberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.members[memberID] == client {
		h.unbindLocked(memberID)
	}
}

// must be called with lock held
func (h *Hub) unbindLocked(memberID string) {
	client, ok := h.members[memberID]
	if !ok {
		return
	}

	delete(h.members, memberID)

	if roomMembers, exists := h.rooms[client.RoomID]; exists {
		delete(roomMembers, memberID)

		if len(roomMembers) == 0 {
			delete(h.rooms, client.RoomID)
			delete(h.roomSequences, client.RoomID)
		}
	}

	client.setMember("")
}

// returns the connection bound to memberID
func (h *Hub) MemberClient(memberID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.members[memberID]
	return client, ok
}

// sends evt to every member bound in roomID except excludeMemberID
func (h *Hub) Broadcast(roomID string, evt coordinator.Event, excludeMemberID string) {
	msg, err := NewMessage(evt.Type, roomID, "", evt.Payload)
	if err != nil {
		logger.ErrorErr(err, "failed to encode room event",
			"room_id", roomID,
			"event", evt.Type,
		)
		return
	}

	h.BroadcastToRoom(roomID, msg, excludeMemberID)
}

// sends a message to all members bound in a room
func (h *Hub) BroadcastToRoom(roomID string, msg *Message, excludeMemberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToRoom(roomID, msg, excludeMemberID)
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToRoom(roomID string, msg *Message, excludeMemberID string) {
	roomMembers, exists := h.rooms[roomID]
	if !exists {
		return
	}

	// assign sequence number to message
	h.roomSequences[roomID]++
	msg.Sequence = h.roomSequences[roomID]

	for memberID, client := range roomMembers {
		if memberID == excludeMemberID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to member",
				"client_id", client.ID,
				"member_id", memberID,
				"room_id", roomID,
			)
		}
	}
}

// sends evt to the connection bound to memberID, if any
func (h *Hub) Notify(memberID string, evt coordinator.Event) {
	client, ok := h.MemberClient(memberID)
	if !ok {
		return
	}

	msg, err := NewMessage(evt.Type, client.RoomID, memberID, evt.Payload)
	if err != nil {
		logger.ErrorErr(err, "failed to encode member event",
			"member_id", memberID,
			"event", evt.Type,
		)
		return
	}

	if err := client.Send(msg); err != nil {
		logger.ErrorErr(err, "failed to notify member",
			"client_id", client.ID,
			"member_id", memberID,
		)
	}
}

// unbinds a member the coordinator no longer has in the room; the socket stays open
func (h *Hub) Release(memberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unbindLocked(memberID)
}

// reports whether memberID is bound to an open connection
func (h *Hub) IsConnected(memberID string) bool {
	client, ok := h.MemberClient(memberID)
	return ok && !client.IsClosed()
}

// returns the number of members bound in a room
func (h *Hub) MemberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// stops the hub loop after notifying clients; waits for the loop up to ctx
func (h *Hub) Shutdown(ctx context.Context) {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})

	select {
	case <-h.stopped:
	case <-ctx.Done():
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	shutdownMsg, err := NewMessage(TypeServerShutdown, "", "", ServerShutdownPayload{
		Reason: "server is shutting down for maintenance",
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create shutdown message")
	}

	if shutdownMsg != nil {
		for _, client := range h.clients {
			if err := client.Send(shutdownMsg); err != nil {
				logger.ErrorErr(err, "failed to send shutdown notification",
					"client_id", client.ID,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for clientID, client := range h.clients {
		client.Close()
		logger.Debug("closed client",
			"client_id", clientID,
		)
	}

	// clear all clients and connection tracking
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]*Client)
	h.members = make(map[string]*Client)
	h.ipConnections = make(map[string]int)
	h.roomSequences = make(map[string]uint64)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "Maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

var _ coordinator.Notifier = (*Hub)(nil)

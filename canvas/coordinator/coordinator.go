package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

// runs the membership and update protocols for one well-known room.
// mu serializes membership changes and is never held across store I/O or notifier calls.
type Coordinator struct {
	rooms    *rooms.Manager
	docs     DocumentStore
	notifier Notifier
	cfg      Config
	now      func() time.Time

	mu sync.Mutex
}

type Option func(*Coordinator)

// overrides the clock used for staleness checks
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// creates a coordinator; a nil notifier discards every event
func New(manager *rooms.Manager, docs DocumentStore, notifier Notifier, cfg Config, opts ...Option) *Coordinator {
	defaults := DefaultConfig()
	if cfg.RoomID == "" {
		cfg.RoomID = defaults.RoomID
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaults.Capacity
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	if notifier == nil {
		notifier = discardNotifier{}
	}

	c := &Coordinator{
		rooms:    manager,
		docs:     docs,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Coordinator) Config() Config {
	return c.cfg
}

// one member removed from the room, with the facts needed for its side effects
type departure struct {
	memberID string
	wasHost  bool
	newHost  string
	evicted  bool
}

// admits a member, evicting the oldest member when the room is full
func (c *Coordinator) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if req.MemberID == "" {
		return nil, fmt.Errorf("%w: member_id is required", ErrValidation)
	}

	name := req.Name
	if name == "" {
		name = defaultName(req.MemberID)
	}

	c.mu.Lock()

	out := &outbox{}

	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists {
		var err error
		room, err = c.rooms.CreateRoom(c.cfg.RoomID, c.cfg.Capacity)
		if err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
	}

	if room.HasMember(req.MemberID) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", req.MemberID, ErrAlreadyMember)
	}

	var evicted *departure

	if room.IsFull() {
		c.rooms.SweepEmptyRooms()

		if room.IsFull() {
			if oldest, ok := room.Oldest(); ok {
				d := c.removeLocked(room, oldest.ID, out)
				d.evicted = true
				evicted = &d

				out.broadcast(room.ID(), Event{
					Type: EventMemberEvicted,
					Payload: MemberEvictedPayload{
						MemberID:  d.memberID,
						Reason:    EvictionReasonInactivity,
						Occupancy: c.occupancyLocked(room),
					},
				}, "")
				out.release(d.memberID)
			}
		}

		if room.IsFull() {
			c.mu.Unlock()
			out.dispatch(c.notifier, c.releaseIfGone)
			c.backupDepartures(ctx, evicted)
			return nil, fmt.Errorf("%w: %d members max", ErrRoomFull, room.Capacity())
		}
	}

	// a sweep removes the room from the registry when it was empty
	if _, ok := c.rooms.GetRoom(room.ID()); !ok {
		var err error
		room, err = c.rooms.CreateRoom(c.cfg.RoomID, c.cfg.Capacity)
		if err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
	}

	member, err := room.AddMember(req.MemberID, name, req.Metadata)
	if err != nil {
		c.mu.Unlock()
		out.dispatch(c.notifier, c.releaseIfGone)
		c.backupDepartures(ctx, evicted)
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if room.Host() == "" {
		if oldest, ok := room.Oldest(); ok {
			room.SetHost(oldest.ID)
		}
	}
	room.SetStatus(rooms.StatusActive)

	occ := c.occupancyLocked(room)

	out.broadcast(room.ID(), Event{
		Type: EventMemberJoined,
		Payload: MemberJoinedPayload{
			MemberID:  member.ID,
			Name:      member.Name,
			Occupancy: occ,
		},
	}, member.ID)

	c.mu.Unlock()

	c.backupDepartures(ctx, evicted)

	doc, err := c.docs.Current(ctx)
	if err != nil {
		logger.Warn("failed to load canvas for joining member, sending empty canvas",
			"room_id", room.ID(),
			"member_id", member.ID,
			"error", err,
		)
		doc = &documents.Document{Strokes: []documents.Stroke{}}
	}

	out.dispatch(c.notifier, c.releaseIfGone)

	logger.Info("member joined",
		"room_id", room.ID(),
		"member_id", member.ID,
		"member_count", occ.MemberCount,
		"is_host", occ.Host == member.ID,
	)

	result := &JoinResult{
		Member:    member,
		IsHost:    occ.Host == member.ID,
		Document:  doc,
		Occupancy: occ,
	}

	if evicted != nil {
		result.Evicted = evicted.memberID
	}

	return result, nil
}

// removes a member on its own request; leaving twice is a no-op
func (c *Coordinator) Leave(ctx context.Context, memberID string) (*LeaveResult, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member_id is required", ErrValidation)
	}

	c.mu.Lock()

	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists {
		c.mu.Unlock()
		return nil, ErrRoomNotFound
	}

	if !room.HasMember(memberID) {
		occ := c.occupancyLocked(room)
		c.mu.Unlock()
		return &LeaveResult{Occupancy: occ}, nil
	}

	out := &outbox{}
	d := c.removeLocked(room, memberID, out)
	occ := c.occupancyLocked(room)

	roomRemoved := false
	if room.MemberCount() == 0 {
		roomRemoved = c.rooms.RemoveRoom(room.ID())
	}

	out.broadcast(room.ID(), Event{
		Type: EventMemberLeft,
		Payload: MemberLeftPayload{
			MemberID:  memberID,
			WasHost:   d.wasHost,
			NewHost:   d.newHost,
			Occupancy: occ,
		},
	}, memberID)

	c.mu.Unlock()

	written := c.backupDepartures(ctx, &d)

	out.dispatch(c.notifier, c.releaseIfGone)

	logger.Info("member left",
		"room_id", room.ID(),
		"member_id", memberID,
		"was_host", d.wasHost,
		"member_count", occ.MemberCount,
	)

	return &LeaveResult{
		Removed:       true,
		WasHost:       d.wasHost,
		NewHost:       d.newHost,
		RoomRemoved:   roomRemoved,
		BackupWritten: written,
		Occupancy:     occ,
	}, nil
}

// validates, persists and fans out one stroke.
// the current document is written before the stroke is broadcast or acknowledged.
func (c *Coordinator) SubmitStroke(ctx context.Context, memberID string, payload map[string]any) (*StrokeResult, error) {
	if missing := documents.MissingFields(payload); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, &documents.MissingFieldsError{Fields: missing})
	}

	c.mu.Lock()
	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists || !room.HasMember(memberID) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%q: %w", memberID, ErrNotAMember)
	}
	room.Touch(memberID)
	c.mu.Unlock()

	if err := documents.ValidateColor(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	res, err := c.docs.AppendStroke(ctx, memberID, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if res.CheckpointErr != nil {
		logger.ErrorErr(res.CheckpointErr, "failed to write checkpoint backup",
			"room_id", room.ID(),
			"stroke_count", res.StrokeCount,
		)
	} else if res.Checkpointed {
		logger.Info("checkpoint backup written",
			"room_id", room.ID(),
			"stroke_count", res.StrokeCount,
		)
	}

	c.notifier.Broadcast(room.ID(), Event{
		Type: EventUpdateReceived,
		Payload: UpdateReceivedPayload{
			Stroke:      res.Stroke,
			StrokeCount: res.StrokeCount,
		},
	}, memberID)

	return &StrokeResult{
		Stroke:       res.Stroke,
		StrokeCount:  res.StrokeCount,
		Checkpointed: res.Checkpointed,
	}, nil
}

// returns the current document and occupancy to a member
func (c *Coordinator) RequestState(ctx context.Context, memberID string) (*StateResult, error) {
	c.mu.Lock()
	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists || !room.HasMember(memberID) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%q: %w", memberID, ErrNotAMember)
	}
	room.Touch(memberID)
	occ := c.occupancyLocked(room)
	c.mu.Unlock()

	doc, err := c.docs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return &StateResult{Document: doc, Occupancy: occ}, nil
}

// cleans up after a lost connection. a known member is removed exactly;
// an unknown one falls back to removing members joined longer ago than StaleAfter
// that no longer hold a connection. returns the removed member ids.
func (c *Coordinator) Disconnect(ctx context.Context, memberID string) []string {
	var connected map[string]bool
	if memberID == "" {
		connected = c.connectedMembers()
	}

	c.mu.Lock()

	var departed []departure
	out := &outbox{}

	if room, exists := c.rooms.GetRoom(c.cfg.RoomID); exists {
		if memberID != "" {
			if room.HasMember(memberID) {
				departed = append(departed, c.removeLocked(room, memberID, out))
			}
		} else {
			departed = c.removeStaleLocked(room, c.now(), connected, out)
		}
	}

	removed := c.finishRemovalLocked(departed, out)

	c.mu.Unlock()

	c.backupDepartures(ctx, ptrs(departed)...)
	out.dispatch(c.notifier, c.releaseIfGone)

	if len(removed) > 0 {
		logger.Info("members removed after disconnect",
			"room_id", c.cfg.RoomID,
			"removed", removed,
			"exact", memberID != "",
		)
	}

	return removed
}

// removes members whose join time is older than StaleAfter relative to now
func (c *Coordinator) RemoveStale(ctx context.Context, now time.Time) []string {
	c.mu.Lock()

	var departed []departure
	out := &outbox{}

	if room, exists := c.rooms.GetRoom(c.cfg.RoomID); exists {
		departed = c.removeStaleLocked(room, now, nil, out)
	}

	removed := c.finishRemovalLocked(departed, out)

	c.mu.Unlock()

	c.backupDepartures(ctx, ptrs(departed)...)
	out.dispatch(c.notifier, c.releaseIfGone)

	return removed
}

// removes members idle since before now-StaleAfter that have no live connection
func (c *Coordinator) RemoveInactive(ctx context.Context, now time.Time) []string {
	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists {
		return nil
	}

	cutoff := now.Add(-c.cfg.StaleAfter)

	var candidates []string
	for _, m := range room.Members() {
		if m.LastActiveAt.Before(cutoff) && !c.notifier.IsConnected(m.ID) {
			candidates = append(candidates, m.ID)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	c.mu.Lock()

	var departed []departure
	out := &outbox{}

	if room, exists := c.rooms.GetRoom(c.cfg.RoomID); exists {
		for _, id := range candidates {
			m, ok := room.Member(id)
			if !ok || !m.LastActiveAt.Before(cutoff) {
				continue
			}
			departed = append(departed, c.removeLocked(room, id, out))
		}
	}

	removed := c.finishRemovalLocked(departed, out)

	c.mu.Unlock()

	c.backupDepartures(ctx, ptrs(departed)...)
	out.dispatch(c.notifier, c.releaseIfGone)

	return removed
}

// writes a startup backup of a non-empty canvas; call before accepting connections
func (c *Coordinator) Recover(ctx context.Context) (bool, error) {
	written, err := c.docs.Backup(ctx, documents.BackupRequest{
		Reason:        documents.ReasonStartup,
		Detail:        "server startup backup",
		ServerRestart: true,
	})
	if err != nil {
		return false, fmt.Errorf("startup backup: %w", err)
	}

	return written, nil
}

// unbinds memberID from its connection unless it has joined again since the release was queued.
// runs under c.mu so a concurrent Join cannot slip between the check and the unbind;
// Notifier.Release must not call back into the coordinator.
func (c *Coordinator) releaseIfGone(memberID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if room, exists := c.rooms.GetRoom(c.cfg.RoomID); exists && room.HasMember(memberID) {
		return
	}

	c.notifier.Release(memberID)
}

// returns the current occupancy of the canvas room
func (c *Coordinator) Occupancy() Occupancy {
	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists {
		return Occupancy{RoomID: c.cfg.RoomID, Capacity: c.cfg.Capacity}
	}

	return c.occupancyLocked(room)
}

// removes one member and reassigns host to the oldest remaining member when needed.
// callers hold c.mu.
func (c *Coordinator) removeLocked(room *rooms.Room, memberID string, out *outbox) departure {
	d := departure{memberID: memberID}

	d.wasHost = room.Host() == memberID
	room.RemoveMember(memberID)

	if room.Host() == "" {
		room.ClearHost()

		if oldest, ok := room.Oldest(); ok {
			room.SetHost(oldest.ID)
			d.newHost = oldest.ID

			prev := ""
			if d.wasHost {
				prev = memberID
			}

			out.notify(oldest.ID, Event{
				Type:    EventNewHostAssigned,
				Payload: NewHostPayload{MemberID: oldest.ID, PreviousHost: prev},
			})
		}
	}

	return d
}

// members in keep are never removed
func (c *Coordinator) removeStaleLocked(room *rooms.Room, now time.Time, keep map[string]bool, out *outbox) []departure {
	cutoff := now.Add(-c.cfg.StaleAfter)

	var departed []departure
	for _, m := range room.Members() {
		if m.JoinedAt.Before(cutoff) && !keep[m.ID] {
			departed = append(departed, c.removeLocked(room, m.ID, out))
		}
	}

	return departed
}

// snapshots which members still hold a live connection; called without c.mu
func (c *Coordinator) connectedMembers() map[string]bool {
	room, exists := c.rooms.GetRoom(c.cfg.RoomID)
	if !exists {
		return nil
	}

	connected := make(map[string]bool)
	for _, m := range room.Members() {
		if c.notifier.IsConnected(m.ID) {
			connected[m.ID] = true
		}
	}

	return connected
}

// releases departed connections, drops an emptied room and queues occupancy_changed
func (c *Coordinator) finishRemovalLocked(departed []departure, out *outbox) []string {
	if len(departed) == 0 {
		c.rooms.SweepEmptyRooms()
		return nil
	}

	removed := make([]string, len(departed))
	for i, d := range departed {
		removed[i] = d.memberID
		out.release(d.memberID)
	}

	occ := Occupancy{RoomID: c.cfg.RoomID, Capacity: c.cfg.Capacity}
	if room, exists := c.rooms.GetRoom(c.cfg.RoomID); exists {
		occ = c.occupancyLocked(room)
	}

	c.rooms.SweepEmptyRooms()

	out.broadcast(c.cfg.RoomID, Event{
		Type: EventOccupancyChanged,
		Payload: OccupancyChangedPayload{
			Removed:   removed,
			Occupancy: occ,
		},
	}, "")

	return removed
}

// writes one member_left backup per departure; failures are logged, not returned.
// returns whether any backup was written.
func (c *Coordinator) backupDepartures(ctx context.Context, departed ...*departure) bool {
	written := false

	for _, d := range departed {
		if d == nil {
			continue
		}

		detail := "member left"
		if d.evicted {
			detail = "evicted"
		}

		ok, err := c.docs.Backup(ctx, documents.BackupRequest{
			Reason:   documents.ReasonMemberLeft,
			Detail:   detail,
			MemberID: d.memberID,
			WasHost:  d.wasHost,
		})
		if err != nil {
			logger.ErrorErr(err, "failed to write departure backup",
				"room_id", c.cfg.RoomID,
				"member_id", d.memberID,
				"reason", documents.ReasonMemberLeft,
			)
			continue
		}

		written = written || ok
	}

	return written
}

func (c *Coordinator) occupancyLocked(room *rooms.Room) Occupancy {
	count := room.MemberCount()

	return Occupancy{
		RoomID:      room.ID(),
		MemberCount: count,
		Capacity:    room.Capacity(),
		RoomFull:    count >= room.Capacity(),
		Host:        room.Host(),
	}
}

func defaultName(memberID string) string {
	short := memberID
	if len(short) > 8 {
		short = short[:8]
	}

	return "Member " + short
}

func ptrs(ds []departure) []*departure {
	out := make([]*departure, len(ds))
	for i := range ds {
		out[i] = &ds[i]
	}
	return out
}

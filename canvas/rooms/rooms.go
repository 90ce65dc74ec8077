package rooms

import (
	"maps"
	"sync"
	"time"
)

// in-memory group of members sharing one document, bounded by capacity.
// membership is kept in join order, oldest first.
type Room struct {
	id        string
	capacity  int
	createdAt time.Time
	now       func() time.Time

	mu      sync.RWMutex
	members []*Member
	index   map[string]*Member
	status  Status
	data    map[string]any
}

func newRoom(id string, capacity int, now func() time.Time) *Room {
	return &Room{
		id:        id,
		capacity:  capacity,
		createdAt: now(),
		now:       now,
		index:     make(map[string]*Member),
		status:    StatusWaiting,
		data:      make(map[string]any),
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) Capacity() int {
	return r.capacity
}

func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// adds a member stamped with the current time, preserving join order
func (r *Room) AddMember(id, name string, metadata map[string]any) (*Member, error) {
	if id == "" {
		return nil, ErrInvalidMemberID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) >= r.capacity {
		return nil, ErrRoomFull
	}

	if _, exists := r.index[id]; exists {
		return nil, ErrAlreadyMember
	}

	now := r.now()
	member := &Member{
		ID:           id,
		Name:         name,
		JoinedAt:     now,
		LastActiveAt: now,
		Metadata:     maps.Clone(metadata),
	}

	r.members = append(r.members, member)
	r.index[id] = member

	return copyMember(member), nil
}

// removes a member; returns false if it was not present
func (r *Room) RemoveMember(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[id]; !exists {
		return false
	}

	delete(r.index, id)

	for i, m := range r.members {
		if m.ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}

	return true
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members)
}

func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members) >= r.capacity
}

func (r *Room) HasMember(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.index[id]
	return exists
}

// returns a copy of the member, or false
func (r *Room) Member(id string) (*Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.index[id]
	if !exists {
		return nil, false
	}

	return copyMember(m), true
}

// returns copies of all members in join order
func (r *Room) Members() []*Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Member, len(r.members))
	for i, m := range r.members {
		out[i] = copyMember(m)
	}

	return out
}

// returns the earliest-joined member, or false if the room is empty
func (r *Room) Oldest() (*Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.members) == 0 {
		return nil, false
	}

	return copyMember(r.members[0]), true
}

// returns the host member id, or "" when no current member holds host.
// a host value naming a departed member reads as absent.
func (r *Room) Host() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.hostLocked()
}

func (r *Room) hostLocked() string {
	host, _ := r.data[DataKeyHost].(string)
	if _, exists := r.index[host]; !exists {
		return ""
	}

	return host
}

// assigns host to a current member; returns false if id is not a member
func (r *Room) SetHost(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[id]; !exists {
		return false
	}

	r.data[DataKeyHost] = id
	return true
}

func (r *Room) ClearHost() {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, DataKeyHost)
}

// records activity for a member; returns false if id is not a member
func (r *Room) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.index[id]
	if !exists {
		return false
	}

	m.LastActiveAt = r.now()
	return true
}

func (r *Room) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.status
}

func (r *Room) SetStatus(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = status
}

func (r *Room) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.members))
	for i, m := range r.members {
		ids[i] = m.ID
	}

	return Summary{
		ID:          r.id,
		Capacity:    r.capacity,
		MemberCount: len(r.members),
		MemberIDs:   ids,
		Host:        r.hostLocked(),
		Status:      r.status,
		CreatedAt:   r.createdAt,
		Data:        maps.Clone(r.data),
	}
}

func copyMember(m *Member) *Member {
	c := *m
	c.Metadata = maps.Clone(m.Metadata)
	return &c
}

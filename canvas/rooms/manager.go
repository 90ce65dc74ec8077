package rooms

import (
	"sort"
	"sync"
	"time"
)

// registry of live rooms keyed by room id
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	now   func() time.Time
}

type ManagerOption func(*Manager)

// overrides the clock used for room creation and member timestamps
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// returns an empty room manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// registers a new room; fails if the id is already taken
func (m *Manager) CreateRoom(id string, capacity int) (*Room, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[id]; exists {
		return nil, ErrRoomAlreadyExists
	}

	room := newRoom(id, capacity, m.now)
	m.rooms[id] = room

	return room, nil
}

func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// removes a room; returns false if it was not registered
func (m *Manager) RemoveRoom(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[id]; !exists {
		return false
	}

	delete(m.rooms, id)
	return true
}

// removes every room with zero members and returns how many were removed
func (m *Manager) SweepEmptyRooms() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, room := range m.rooms {
		if room.MemberCount() == 0 {
			delete(m.rooms, id)
			removed++
		}
	}

	return removed
}

// returns all rooms ordered by creation time
func (m *Manager) Rooms() []*Room {
	m.mu.RLock()
	out := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})

	return out
}

func (m *Manager) Stats() Stats {
	var stats Stats

	for _, room := range m.Rooms() {
		stats.TotalRooms++
		stats.TotalMembers += room.MemberCount()

		switch room.Status() {
		case StatusWaiting:
			stats.WaitingRooms++
		case StatusActive:
			stats.ActiveRooms++
		}
	}

	return stats
}

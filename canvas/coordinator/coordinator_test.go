package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
	"codeberg.org/sharedcanvas/server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	kind    string
	target  string
	exclude string
	evt     Event
}

// records every notifier call
type fakeNotifier struct {
	mu        sync.Mutex
	events    []sentEvent
	connected map[string]bool

	// called after each broadcast is recorded, outside mu
	onBroadcast func(evt Event)
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{connected: make(map[string]bool)}
}

func (f *fakeNotifier) Broadcast(roomID string, evt Event, exclude string) {
	f.mu.Lock()
	f.events = append(f.events, sentEvent{kind: "broadcast", target: roomID, exclude: exclude, evt: evt})
	hook := f.onBroadcast
	f.mu.Unlock()

	if hook != nil {
		hook(evt)
	}
}

func (f *fakeNotifier) released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, e := range f.events {
		if e.kind == "release" {
			out = append(out, e.target)
		}
	}
	return out
}

func (f *fakeNotifier) Notify(memberID string, evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{kind: "notify", target: memberID, evt: evt})
}

func (f *fakeNotifier) Release(memberID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{kind: "release", target: memberID})
}

func (f *fakeNotifier) IsConnected(memberID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected[memberID]
}

func (f *fakeNotifier) setConnected(memberID string, connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected[memberID] = connected
}

func (f *fakeNotifier) ofType(eventType string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sentEvent
	for _, e := range f.events {
		if e.evt.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// manual clock shared by rooms, documents and the coordinator
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	coord    *Coordinator
	notifier *fakeNotifier
	docs     *documents.Repository
	store    storage.Store
	manager  *rooms.Manager
	clock    *manualClock
}

func newHarness(t *testing.T, capacity int, store storage.Store) *harness {
	t.Helper()

	if store == nil {
		store = storage.NewMemoryStore()
	}

	clock := newManualClock()
	manager := rooms.NewManager(rooms.WithClock(clock.Now))
	docs := documents.NewRepository(store, documents.WithClock(clock.Now))
	notifier := newFakeNotifier()

	cfg := DefaultConfig()
	cfg.Capacity = capacity

	return &harness{
		coord:    New(manager, docs, notifier, cfg, WithClock(clock.Now)),
		notifier: notifier,
		docs:     docs,
		store:    store,
		manager:  manager,
		clock:    clock,
	}
}

func (h *harness) join(t *testing.T, id string) *JoinResult {
	t.Helper()

	res, err := h.coord.Join(context.Background(), JoinRequest{MemberID: id, Name: "Member " + id})
	require.NoError(t, err)
	return res
}

func (h *harness) room(t *testing.T) *rooms.Room {
	t.Helper()

	room, ok := h.manager.GetRoom(DefaultRoomID)
	require.True(t, ok)
	return room
}

func (h *harness) backups(t *testing.T) []documents.Backup {
	t.Helper()

	backups, err := h.docs.Backups(context.Background())
	require.NoError(t, err)
	return backups
}

func validStroke() map[string]any {
	return map[string]any{"x": 1, "y": 2, "color": "black"}
}

// fails every write after being armed
type flakyStore struct {
	storage.Store
	mu     sync.Mutex
	broken bool
}

func (s *flakyStore) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = true
}

func (s *flakyStore) isBroken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken
}

func (s *flakyStore) Set(ctx context.Context, ns, coll string, v any) error {
	if s.isBroken() {
		return errors.New("store unavailable")
	}
	return s.Store.Set(ctx, ns, coll, v)
}

func (s *flakyStore) Append(ctx context.Context, ns, coll string, v any) error {
	if s.isBroken() {
		return errors.New("store unavailable")
	}
	return s.Store.Append(ctx, ns, coll, v)
}

func (s *flakyStore) Get(ctx context.Context, ns, coll string) (json.RawMessage, error) {
	if s.isBroken() {
		return nil, errors.New("store unavailable")
	}
	return s.Store.Get(ctx, ns, coll)
}

func TestJoin_FirstMemberBecomesHost(t *testing.T) {
	h := newHarness(t, 8, nil)

	res := h.join(t, "a")
	assert.True(t, res.IsHost)
	assert.Equal(t, "a", res.Host)
	assert.Equal(t, 1, res.MemberCount)
	assert.Equal(t, 8, res.Capacity)
	assert.False(t, res.RoomFull)
	assert.Equal(t, DefaultRoomID, res.RoomID)
	assert.NotNil(t, res.Document)
	assert.Empty(t, res.Evicted)

	res = h.join(t, "b")
	assert.False(t, res.IsHost)
	assert.Equal(t, "a", res.Host)
	assert.Equal(t, rooms.StatusActive, h.room(t).Status())
}

func TestJoin_RequiresMemberID(t *testing.T) {
	h := newHarness(t, 8, nil)

	_, err := h.coord.Join(context.Background(), JoinRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, ok := h.manager.GetRoom(DefaultRoomID)
	assert.False(t, ok)
}

func TestJoin_DefaultName(t *testing.T) {
	h := newHarness(t, 8, nil)

	res, err := h.coord.Join(context.Background(), JoinRequest{MemberID: "0123456789abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "Member 01234567", res.Member.Name)

	res, err = h.coord.Join(context.Background(), JoinRequest{MemberID: "xy"})
	require.NoError(t, err)
	assert.Equal(t, "Member xy", res.Member.Name)
}

func TestJoin_AlreadyMemberIsRejectedWithoutEviction(t *testing.T) {
	h := newHarness(t, 2, nil)
	h.join(t, "a")
	h.join(t, "b")

	_, err := h.coord.Join(context.Background(), JoinRequest{MemberID: "b"})
	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Equal(t, 2, h.room(t).MemberCount())
	assert.True(t, h.room(t).HasMember("a"))
	assert.Empty(t, h.notifier.ofType(EventMemberEvicted))
}

func TestJoin_BroadcastsToOthers(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")
	h.notifier.reset()

	h.join(t, "b")

	joined := h.notifier.ofType(EventMemberJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "broadcast", joined[0].kind)
	assert.Equal(t, DefaultRoomID, joined[0].target)
	assert.Equal(t, "b", joined[0].exclude)

	payload := joined[0].evt.Payload.(MemberJoinedPayload)
	assert.Equal(t, "b", payload.MemberID)
	assert.Equal(t, 2, payload.MemberCount)
	assert.Equal(t, "a", payload.Host)
}

func TestJoin_ReturnsPersistedDocument(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")

	_, err := h.coord.SubmitStroke(context.Background(), "a", validStroke())
	require.NoError(t, err)

	res := h.join(t, "b")
	require.Len(t, res.Document.Strokes, 1)
	assert.Equal(t, "a", res.Document.Strokes[0].MemberID)
}

func TestJoin_StoreReadFailureFallsBackToEmptyDocument(t *testing.T) {
	store := &flakyStore{Store: storage.NewMemoryStore()}
	h := newHarness(t, 8, store)
	store.fail()

	res := h.join(t, "a")
	assert.NotNil(t, res.Document)
	assert.Empty(t, res.Document.Strokes)
}

// capacity 2: A hosts, B fills the room, C evicts A and B takes over host
func TestJoin_EvictionScenario(t *testing.T) {
	h := newHarness(t, 2, nil)
	ctx := context.Background()

	a := h.join(t, "a")
	assert.True(t, a.IsHost)
	assert.Equal(t, 1, a.MemberCount)

	b := h.join(t, "b")
	assert.Equal(t, 2, b.MemberCount)
	assert.True(t, b.RoomFull)

	_, err := h.coord.SubmitStroke(ctx, "a", validStroke())
	require.NoError(t, err)
	h.notifier.reset()

	c := h.join(t, "c")
	assert.Equal(t, "a", c.Evicted)
	assert.Equal(t, 2, c.MemberCount)
	assert.Equal(t, "b", c.Host)
	assert.False(t, c.IsHost)

	room := h.room(t)
	assert.False(t, room.HasMember("a"))
	assert.Equal(t, "b", room.Host())

	evicted := h.notifier.ofType(EventMemberEvicted)
	require.Len(t, evicted, 1)
	assert.Equal(t, "broadcast", evicted[0].kind)
	payload := evicted[0].evt.Payload.(MemberEvictedPayload)
	assert.Equal(t, "a", payload.MemberID)
	assert.Equal(t, EvictionReasonInactivity, payload.Reason)

	newHost := h.notifier.ofType(EventNewHostAssigned)
	require.Len(t, newHost, 1)
	assert.Equal(t, "notify", newHost[0].kind)
	assert.Equal(t, "b", newHost[0].target)

	assert.Equal(t, []string{"a"}, h.notifier.released())

	backups := h.backups(t)
	require.Len(t, backups, 1)
	assert.Equal(t, documents.ReasonMemberLeft, backups[0].Reason)
	assert.Equal(t, "evicted", backups[0].Detail)
	assert.Equal(t, "a", backups[0].MemberID)
	assert.True(t, backups[0].WasHost)
}

// the evicted member joins again before the queued release is delivered
func TestJoin_RejoinBeforeReleaseKeepsBinding(t *testing.T) {
	h := newHarness(t, 2, nil)
	h.join(t, "a")
	h.join(t, "b")

	var once sync.Once
	h.notifier.onBroadcast = func(evt Event) {
		if evt.Type != EventMemberEvicted {
			return
		}

		payload := evt.Payload.(MemberEvictedPayload)
		if payload.MemberID != "a" {
			return
		}

		once.Do(func() {
			_, err := h.coord.Join(context.Background(), JoinRequest{MemberID: "a"})
			assert.NoError(t, err)
		})
	}

	res := h.join(t, "c")
	assert.Equal(t, "a", res.Evicted)

	room := h.room(t)
	assert.True(t, room.HasMember("a"))
	assert.LessOrEqual(t, room.MemberCount(), 2)

	// a's new membership must keep its connection; only the member it displaced is released
	assert.NotContains(t, h.notifier.released(), "a")
	assert.Equal(t, []string{"b"}, h.notifier.released())
}

func TestJoin_CapacityOneEvictsAndPromotesJoiner(t *testing.T) {
	h := newHarness(t, 1, nil)
	h.join(t, "a")

	res := h.join(t, "b")
	assert.Equal(t, "a", res.Evicted)
	assert.True(t, res.IsHost)
	assert.Equal(t, 1, res.MemberCount)
}

func TestJoin_NeverExceedsCapacity(t *testing.T) {
	h := newHarness(t, 8, nil)

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := h.coord.Join(context.Background(), JoinRequest{MemberID: fmt.Sprintf("m%02d", n)})
			if err != nil {
				assert.ErrorIs(t, err, ErrRoomFull)
			}
			assert.LessOrEqual(t, h.coord.Occupancy().MemberCount, 8)
		}(i)
	}
	wg.Wait()

	occ := h.coord.Occupancy()
	assert.Equal(t, 8, occ.MemberCount)
	assert.True(t, occ.RoomFull)

	room := h.room(t)
	assert.True(t, room.HasMember(occ.Host))
}

func TestLeave_HostSuccessionToOldest(t *testing.T) {
	h := newHarness(t, 8, nil)
	for _, id := range []string{"a", "b", "c"} {
		h.join(t, id)
	}
	h.notifier.reset()

	res, err := h.coord.Leave(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.True(t, res.WasHost)
	assert.Equal(t, "b", res.NewHost)
	assert.Equal(t, "b", res.Host)
	assert.Equal(t, 2, res.MemberCount)
	assert.False(t, res.RoomRemoved)

	assert.Equal(t, "b", h.room(t).Host())

	newHost := h.notifier.ofType(EventNewHostAssigned)
	require.Len(t, newHost, 1)
	assert.Equal(t, "b", newHost[0].target)

	left := h.notifier.ofType(EventMemberLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "a", left[0].exclude)
	payload := left[0].evt.Payload.(MemberLeftPayload)
	assert.True(t, payload.WasHost)
	assert.Equal(t, 2, payload.MemberCount)
}

func TestLeave_NonHostKeepsHost(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")
	h.join(t, "b")
	h.notifier.reset()

	res, err := h.coord.Leave(context.Background(), "b")
	require.NoError(t, err)
	assert.False(t, res.WasHost)
	assert.Empty(t, res.NewHost)
	assert.Equal(t, "a", h.room(t).Host())
	assert.Empty(t, h.notifier.ofType(EventNewHostAssigned))
}

func TestLeave_LastMemberRemovesRoom(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")

	res, err := h.coord.Leave(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, res.RoomRemoved)
	assert.Equal(t, 0, res.MemberCount)

	_, ok := h.manager.GetRoom(DefaultRoomID)
	assert.False(t, ok)

	_, err = h.coord.Leave(context.Background(), "a")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeave_Validation(t *testing.T) {
	h := newHarness(t, 8, nil)

	_, err := h.coord.Leave(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.coord.Leave(context.Background(), "a")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeave_IsIdempotent(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()
	h.join(t, "a")
	h.join(t, "b")

	_, err := h.coord.SubmitStroke(ctx, "b", validStroke())
	require.NoError(t, err)

	first, err := h.coord.Leave(ctx, "b")
	require.NoError(t, err)
	assert.True(t, first.Removed)
	assert.True(t, first.BackupWritten)

	h.notifier.reset()

	second, err := h.coord.Leave(ctx, "b")
	require.NoError(t, err)
	assert.False(t, second.Removed)
	assert.False(t, second.BackupWritten)

	assert.Len(t, h.backups(t), 1)
	assert.Empty(t, h.notifier.ofType(EventMemberLeft))
}

func TestLeave_BackupCarriesDepartingMember(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()
	h.join(t, "a")
	h.join(t, "b")

	_, err := h.coord.SubmitStroke(ctx, "a", validStroke())
	require.NoError(t, err)

	_, err = h.coord.Leave(ctx, "a")
	require.NoError(t, err)

	backups := h.backups(t)
	require.Len(t, backups, 1)
	assert.Equal(t, documents.ReasonMemberLeft, backups[0].Reason)
	assert.Equal(t, "a", backups[0].MemberID)
	assert.True(t, backups[0].WasHost)
	assert.Equal(t, 1, backups[0].StrokeCount)
}

func TestLeave_EmptyCanvasWritesNoBackup(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")

	res, err := h.coord.Leave(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, res.BackupWritten)
	assert.Empty(t, h.backups(t))
}

func TestLeave_BackupFailureDoesNotFailLeave(t *testing.T) {
	store := &flakyStore{Store: storage.NewMemoryStore()}
	h := newHarness(t, 8, store)
	ctx := context.Background()
	h.join(t, "a")
	h.join(t, "b")

	_, err := h.coord.SubmitStroke(ctx, "a", validStroke())
	require.NoError(t, err)

	store.fail()

	res, err := h.coord.Leave(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.False(t, res.BackupWritten)
	assert.Equal(t, "b", h.room(t).Host())
}

func TestSubmitStroke_PersistsBeforeBroadcast(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()
	h.join(t, "a")
	h.join(t, "b")
	h.notifier.reset()

	payload := validStroke()
	payload["member_id"] = "spoofed"

	res, err := h.coord.SubmitStroke(ctx, "a", payload)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StrokeCount)
	assert.Equal(t, "a", res.Stroke.MemberID)
	assert.False(t, res.Stroke.Timestamp.IsZero())

	doc, err := h.docs.Current(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Strokes, 1)
	assert.Equal(t, "a", doc.Strokes[0].MemberID)

	updates := h.notifier.ofType(EventUpdateReceived)
	require.Len(t, updates, 1)
	assert.Equal(t, "a", updates[0].exclude)
	assert.Equal(t, 1, updates[0].evt.Payload.(UpdateReceivedPayload).StrokeCount)
}

func TestSubmitStroke_MissingColor(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()
	h.join(t, "a")

	_, err := h.coord.SubmitStroke(ctx, "a", map[string]any{"x": 1, "y": 2})
	require.ErrorIs(t, err, ErrValidation)

	var missing *documents.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"color"}, missing.Fields)

	doc, err := h.docs.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Strokes)
	assert.Empty(t, h.notifier.ofType(EventUpdateReceived))
}

func TestSubmitStroke_Rejections(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()

	_, err := h.coord.SubmitStroke(ctx, "a", validStroke())
	assert.ErrorIs(t, err, ErrNotAMember)

	h.join(t, "a")

	_, err = h.coord.SubmitStroke(ctx, "b", validStroke())
	assert.ErrorIs(t, err, ErrNotAMember)

	_, err = h.coord.SubmitStroke(ctx, "a", map[string]any{"x": 1, "y": 2, "color": "purple"})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	// missing fields are reported before membership
	_, err = h.coord.SubmitStroke(ctx, "b", map[string]any{})
	assert.ErrorIs(t, err, ErrValidation)

	doc, err := h.docs.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Strokes)
}

func TestSubmitStroke_PersistenceFailureIsReported(t *testing.T) {
	store := &flakyStore{Store: storage.NewMemoryStore()}
	h := newHarness(t, 8, store)
	h.join(t, "a")
	h.join(t, "b")
	h.notifier.reset()

	store.fail()

	_, err := h.coord.SubmitStroke(context.Background(), "a", validStroke())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, CodePersistence, ErrorCode(err))
	assert.Empty(t, h.notifier.ofType(EventUpdateReceived))
}

func TestSubmitStroke_OneCheckpointAfterFifty(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()
	h.join(t, "a")

	var checkpoints int
	for range 50 {
		res, err := h.coord.SubmitStroke(ctx, "a", validStroke())
		require.NoError(t, err)
		if res.Checkpointed {
			checkpoints++
		}
	}
	assert.Equal(t, 1, checkpoints)

	backups := h.backups(t)
	require.Len(t, backups, 1)
	assert.Equal(t, documents.ReasonPeriodicCheckpoint, backups[0].Reason)
	assert.Equal(t, 50, backups[0].StrokeCount)
}

func TestSubmitStroke_DurableAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	h := newHarness(t, 8, store)
	h.join(t, "a")

	var acked []time.Time
	for range 3 {
		res, err := h.coord.SubmitStroke(ctx, "a", validStroke())
		require.NoError(t, err)
		acked = append(acked, res.Stroke.Timestamp)
	}

	// a fresh process sees every acknowledged stroke and snapshots it at startup
	restarted, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	h2 := newHarness(t, 8, restarted)

	written, err := h2.coord.Recover(ctx)
	require.NoError(t, err)
	assert.True(t, written)

	doc, err := h2.docs.Current(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Strokes, 3)
	for i, ts := range acked {
		assert.True(t, ts.Equal(doc.Strokes[i].Timestamp))
	}

	backups := h2.backups(t)
	require.Len(t, backups, 1)
	assert.Equal(t, documents.ReasonStartup, backups[0].Reason)
	assert.True(t, backups[0].ServerRestart)
	assert.Equal(t, 3, backups[0].StrokeCount)
}

func TestRecover_EmptyCanvasWritesNothing(t *testing.T) {
	h := newHarness(t, 8, nil)

	written, err := h.coord.Recover(context.Background())
	require.NoError(t, err)
	assert.False(t, written)
	assert.Empty(t, h.backups(t))
}

func TestRecover_StoreFailure(t *testing.T) {
	store := &flakyStore{Store: storage.NewMemoryStore()}
	store.fail()
	h := newHarness(t, 8, store)

	_, err := h.coord.Recover(context.Background())
	assert.Error(t, err)
}

func TestRequestState(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()

	_, err := h.coord.RequestState(ctx, "a")
	assert.ErrorIs(t, err, ErrNotAMember)

	h.join(t, "a")
	_, err = h.coord.SubmitStroke(ctx, "a", validStroke())
	require.NoError(t, err)

	state, err := h.coord.RequestState(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, state.Document.Strokes, 1)
	assert.Equal(t, 1, state.MemberCount)
	assert.Equal(t, "a", state.Host)
}

func TestDisconnect_ExactRemoval(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()
	h.join(t, "a")
	h.join(t, "b")
	_, err := h.coord.SubmitStroke(ctx, "a", validStroke())
	require.NoError(t, err)
	h.notifier.reset()

	removed := h.coord.Disconnect(ctx, "a")
	assert.Equal(t, []string{"a"}, removed)
	assert.Equal(t, "b", h.room(t).Host())

	changed := h.notifier.ofType(EventOccupancyChanged)
	require.Len(t, changed, 1)
	payload := changed[0].evt.Payload.(OccupancyChangedPayload)
	assert.Equal(t, []string{"a"}, payload.Removed)
	assert.Equal(t, 1, payload.MemberCount)

	backups := h.backups(t)
	require.Len(t, backups, 1)
	assert.Equal(t, "a", backups[0].MemberID)

	// unknown member is a no-op
	assert.Empty(t, h.coord.Disconnect(ctx, "zzz"))
}

func TestDisconnect_LastMemberSweepsRoom(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")

	removed := h.coord.Disconnect(context.Background(), "a")
	assert.Equal(t, []string{"a"}, removed)

	_, ok := h.manager.GetRoom(DefaultRoomID)
	assert.False(t, ok)
}

func TestDisconnect_UnknownMemberFallsBackToStaleness(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()

	h.join(t, "old")
	h.clock.Advance(31 * time.Minute)
	h.join(t, "fresh")

	removed := h.coord.Disconnect(ctx, "")
	assert.Equal(t, []string{"old"}, removed)

	room := h.room(t)
	assert.True(t, room.HasMember("fresh"))
	assert.Equal(t, "fresh", room.Host())
}

func TestDisconnect_FallbackKeepsConnectedMembers(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()

	h.join(t, "old-online")
	h.join(t, "old-gone")
	h.notifier.setConnected("old-online", true)
	h.clock.Advance(time.Hour)

	removed := h.coord.Disconnect(ctx, "")
	assert.Equal(t, []string{"old-gone"}, removed)
	assert.True(t, h.room(t).HasMember("old-online"))
}

func TestRemoveStale(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()

	h.join(t, "a")
	h.join(t, "b")

	assert.Empty(t, h.coord.RemoveStale(ctx, h.clock.Now()))

	h.clock.Advance(time.Hour)
	removed := h.coord.RemoveStale(ctx, h.clock.Now())
	assert.ElementsMatch(t, []string{"a", "b"}, removed)

	_, ok := h.manager.GetRoom(DefaultRoomID)
	assert.False(t, ok)
}

func TestRemoveInactive_SkipsConnectedMembers(t *testing.T) {
	h := newHarness(t, 8, nil)
	ctx := context.Background()

	h.join(t, "idle-connected")
	h.join(t, "idle-gone")
	h.join(t, "active")
	h.notifier.setConnected("idle-connected", true)

	h.clock.Advance(time.Hour)

	_, err := h.coord.SubmitStroke(ctx, "active", validStroke())
	require.NoError(t, err)

	removed := h.coord.RemoveInactive(ctx, h.clock.Now())
	assert.Equal(t, []string{"idle-gone"}, removed)

	room := h.room(t)
	assert.True(t, room.HasMember("idle-connected"))
	assert.True(t, room.HasMember("active"))
}

func TestCleanupService_RunOnce(t *testing.T) {
	h := newHarness(t, 8, nil)
	h.join(t, "a")

	svc := NewCleanupService(h.coord)
	assert.Empty(t, svc.RunOnce(context.Background()))

	h.clock.Advance(DefaultStaleAfter + time.Minute)
	assert.Equal(t, []string{"a"}, svc.RunOnce(context.Background()))
}

func TestCleanupService_StopsOnCancel(t *testing.T) {
	h := newHarness(t, 8, nil)
	svc := NewCleanupService(h.coord)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		svc.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup service did not stop")
	}
}

func TestOccupancy_NoRoom(t *testing.T) {
	h := newHarness(t, 8, nil)

	occ := h.coord.Occupancy()
	assert.Equal(t, DefaultRoomID, occ.RoomID)
	assert.Equal(t, 0, occ.MemberCount)
	assert.Equal(t, 8, occ.Capacity)
	assert.False(t, occ.RoomFull)
	assert.Empty(t, occ.Host)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("wrap: %w", ErrValidation), CodeValidation},
		{ErrNotAMember, CodeNotAMember},
		{ErrRoomNotFound, CodeRoomNotFound},
		{fmt.Errorf("%w: 8 max", rooms.ErrRoomFull), CodeRoomFull},
		{rooms.ErrAlreadyMember, CodeAlreadyIn},
		{ErrInvalidPayload, CodeInvalid},
		{ErrPersistence, CodePersistence},
		{errors.New("boom"), CodeServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, ErrorCode(tt.err), tt.err.Error())
	}

	assert.True(t, IsClientError(ErrRoomFull))
	assert.False(t, IsClientError(ErrPersistence))
}

func TestNew_AppliesDefaults(t *testing.T) {
	c := New(rooms.NewManager(), documents.NewRepository(storage.NewMemoryStore()), nil, Config{})

	assert.Equal(t, DefaultConfig(), c.Config())

	// nil notifier discards events
	_, err := c.Join(context.Background(), JoinRequest{MemberID: "a"})
	assert.NoError(t, err)
}

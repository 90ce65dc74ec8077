package coordinator

// notifications produced under the coordination lock, dispatched after it is released
type outbox struct {
	items []outboxItem
}

type outboxItem struct {
	kind     outboxKind
	roomID   string
	memberID string
	evt      Event
}

type outboxKind int

const (
	outboxBroadcast outboxKind = iota
	outboxNotify
	outboxRelease
)

func (o *outbox) broadcast(roomID string, evt Event, excludeMemberID string) {
	o.items = append(o.items, outboxItem{kind: outboxBroadcast, roomID: roomID, memberID: excludeMemberID, evt: evt})
}

func (o *outbox) notify(memberID string, evt Event) {
	o.items = append(o.items, outboxItem{kind: outboxNotify, memberID: memberID, evt: evt})
}

func (o *outbox) release(memberID string) {
	o.items = append(o.items, outboxItem{kind: outboxRelease, memberID: memberID})
}

// delivers queued items in the order they were produced; releases go through release
func (o *outbox) dispatch(n Notifier, release func(memberID string)) {
	for _, item := range o.items {
		switch item.kind {
		case outboxBroadcast:
			n.Broadcast(item.roomID, item.evt, item.memberID)
		case outboxNotify:
			n.Notify(item.memberID, item.evt)
		case outboxRelease:
			release(item.memberID)
		}
	}

	o.items = nil
}

type discardNotifier struct{}

func (discardNotifier) Broadcast(string, Event, string) {}
func (discardNotifier) Notify(string, Event)            {}
func (discardNotifier) Release(string)                  {}
func (discardNotifier) IsConnected(string) bool         { return false }

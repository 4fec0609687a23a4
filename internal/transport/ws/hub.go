package ws

import (
	"context"
	"sync"
	"time"

	"github.com/cwrk-planet/burner-service/internal/fanout"
)

type Conn interface {
	Send(f Frame) error
	Close() error
	RoomID() string
}

// EventSource opens per-room event streams (the Redis-backed fanout bus).
type EventSource interface {
	Subscribe(ctx context.Context, roomID string) (*fanout.Subscription, error)
}

// ExpiryNotifier arms/disarms the destroy broadcast at room expiry.
type ExpiryNotifier interface {
	WatchExpiry(ctx context.Context, roomID string)
	UnwatchExpiry(roomID string)
}

// Hub bridges one shared subscription per room to all local connections.
// The first joiner opens the room's stream, the last leaver closes it; the
// terminal destroy event force-closes every connection of the room.
type Hub struct {
	source EventSource
	expiry ExpiryNotifier

	mu    sync.Mutex
	rooms map[string]*roomState
}

type roomState struct {
	conns map[Conn]struct{}
	sub   *fanout.Subscription
}

func NewHub(source EventSource, expiry ExpiryNotifier) *Hub {
	return &Hub{
		source: source,
		expiry: expiry,
		rooms:  make(map[string]*roomState),
	}
}

func (h *Hub) Join(c Conn) error {
	roomID := c.RoomID()

	h.mu.Lock()
	if rs, ok := h.rooms[roomID]; ok {
		rs.conns[c] = struct{}{}
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := h.source.Subscribe(ctx, roomID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if rs, ok := h.rooms[roomID]; ok {
		// Lost the race with another first joiner.
		rs.conns[c] = struct{}{}
		h.mu.Unlock()
		sub.Close()
		return nil
	}
	rs := &roomState{conns: map[Conn]struct{}{c: {}}, sub: sub}
	h.rooms[roomID] = rs
	h.mu.Unlock()

	h.expiry.WatchExpiry(ctx, roomID)
	go h.pump(roomID, rs)
	return nil
}

func (h *Hub) Leave(c Conn) {
	roomID := c.RoomID()

	h.mu.Lock()
	rs, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(rs.conns, c)
	empty := len(rs.conns) == 0
	if empty {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()

	if empty {
		rs.sub.Close()
		h.expiry.UnwatchExpiry(roomID)
	}
}

// pump relays the room's stream to all its local connections. It runs until
// the stream closes: room destroyed, last local subscriber gone, or the
// transport dropped.
func (h *Hub) pump(roomID string, rs *roomState) {
	for ev := range rs.sub.C {
		h.mu.Lock()
		conns := make([]Conn, 0, len(rs.conns))
		for c := range rs.conns {
			conns = append(conns, c)
		}
		h.mu.Unlock()

		f := frameFor(ev)
		for _, c := range conns {
			_ = c.Send(f) // best-effort
		}
	}

	h.mu.Lock()
	cur, ok := h.rooms[roomID]
	if ok && cur == rs {
		delete(h.rooms, roomID)
	} else {
		// Leave already tore the room down.
		h.mu.Unlock()
		return
	}
	conns := make([]Conn, 0, len(rs.conns))
	for c := range rs.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	h.expiry.UnwatchExpiry(roomID)
	for _, c := range conns {
		_ = c.Close()
	}
}

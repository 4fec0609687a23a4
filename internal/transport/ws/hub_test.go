package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/fanout"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	roomID string

	mu     sync.Mutex
	frames []Frame
	closed bool
}

func (c *fakeConn) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RoomID() string { return c.roomID }

func (c *fakeConn) snapshot() ([]Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...), c.closed
}

type fakeExpiry struct {
	mu        sync.Mutex
	watched   []string
	unwatched []string
}

func (f *fakeExpiry) WatchExpiry(_ context.Context, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, roomID)
}

func (f *fakeExpiry) UnwatchExpiry(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unwatched = append(f.unwatched, roomID)
}

func newHubUnderTest(t *testing.T) (*Hub, *fanout.Bus, *fakeExpiry) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	bus := fanout.NewBus(rdb)
	fe := &fakeExpiry{}
	return NewHub(bus, fe), bus, fe
}

func TestHub_BroadcastToRoom(t *testing.T) {
	req := require.New(t)
	hub, bus, fe := newHubUnderTest(t)
	ctx := context.Background()

	c1 := &fakeConn{roomID: "r1"}
	c2 := &fakeConn{roomID: "r1"}
	other := &fakeConn{roomID: "r2"}
	req.NoError(hub.Join(c1))
	req.NoError(hub.Join(c2))
	req.NoError(hub.Join(other))

	msg := &domain.Message{ID: "m1", Sender: "alice", Text: "hi", Timestamp: 1}
	req.NoError(bus.Publish(ctx, domain.Event{Name: domain.EventMessage, RoomID: "r1", Message: msg}))

	for _, c := range []*fakeConn{c1, c2} {
		c := c
		req.Eventually(func() bool {
			frames, _ := c.snapshot()
			return len(frames) == 1
		}, 2*time.Second, 10*time.Millisecond)

		frames, _ := c.snapshot()
		req.Equal(TypeMessage, frames[0].Type)
		payload, ok := frames[0].Payload.(MessagePayload)
		req.True(ok)
		req.Equal("m1", payload.ID)
		req.Equal("r1", payload.RoomID)
	}

	// the other room saw nothing
	frames, _ := other.snapshot()
	req.Empty(frames)

	fe.mu.Lock()
	defer fe.mu.Unlock()
	req.ElementsMatch([]string{"r1", "r2"}, fe.watched)
}

func TestHub_DestroyClosesEveryone(t *testing.T) {
	req := require.New(t)
	hub, bus, fe := newHubUnderTest(t)
	ctx := context.Background()

	conns := []*fakeConn{{roomID: "r1"}, {roomID: "r1"}, {roomID: "r1"}}
	for _, c := range conns {
		req.NoError(hub.Join(c))
	}

	req.NoError(bus.Publish(ctx, domain.Event{Name: domain.EventDestroy, RoomID: "r1"}))

	for _, c := range conns {
		c := c
		req.Eventually(func() bool {
			frames, closed := c.snapshot()
			return closed && len(frames) == 1
		}, 2*time.Second, 10*time.Millisecond)

		frames, _ := c.snapshot()
		req.Equal(TypeDestroy, frames[0].Type)
	}

	req.Eventually(func() bool {
		fe.mu.Lock()
		defer fe.mu.Unlock()
		return len(fe.unwatched) == 1 && fe.unwatched[0] == "r1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_LeaveDropsSubscription(t *testing.T) {
	req := require.New(t)
	hub, bus, fe := newHubUnderTest(t)
	ctx := context.Background()

	c1 := &fakeConn{roomID: "r1"}
	c2 := &fakeConn{roomID: "r1"}
	req.NoError(hub.Join(c1))
	req.NoError(hub.Join(c2))

	hub.Leave(c1)

	// the room is still live for the remaining connection
	req.NoError(bus.Publish(ctx, domain.Event{Name: domain.EventMessage, RoomID: "r1",
		Message: &domain.Message{ID: "m1"}}))
	req.Eventually(func() bool {
		frames, _ := c2.snapshot()
		return len(frames) == 1
	}, 2*time.Second, 10*time.Millisecond)

	frames, _ := c1.snapshot()
	req.Empty(frames, "a departed connection receives nothing")

	hub.Leave(c2)
	req.Eventually(func() bool {
		fe.mu.Lock()
		defer fe.mu.Unlock()
		return len(fe.unwatched) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// joining again after teardown works from scratch
	c3 := &fakeConn{roomID: "r1"}
	req.NoError(hub.Join(c3))
	req.NoError(bus.Publish(ctx, domain.Event{Name: domain.EventMessage, RoomID: "r1",
		Message: &domain.Message{ID: "m2"}}))
	req.Eventually(func() bool {
		frames, _ := c3.snapshot()
		return len(frames) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

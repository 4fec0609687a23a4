package service

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/fanout"

	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, sub *fanout.Subscription) (domain.Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}, false
	}
}

func TestLifecycleService_Remaining(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	svc := NewLifecycleService(env.rooms, env.bus)
	ctx := context.Background()

	req.NoError(env.rooms.Create(ctx, "r1", 5, 60*time.Second))

	secs, err := svc.Remaining(ctx, "r1")
	req.NoError(err)
	req.EqualValues(60, secs)

	env.mr.FastForward(25 * time.Second)
	secs, err = svc.Remaining(ctx, "r1")
	req.NoError(err)
	req.EqualValues(35, secs)

	// not-found is a distinct outcome from zero
	env.mr.FastForward(40 * time.Second)
	_, err = svc.Remaining(ctx, "r1")
	req.ErrorIs(err, domain.ErrRoomNotFound)

	_, err = svc.Remaining(ctx, "never-existed")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestLifecycleService_DestroyNow(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	svc := NewLifecycleService(env.rooms, env.bus)
	ctx := context.Background()

	req.NoError(env.rooms.Create(ctx, "r1", 5, time.Minute))
	_, err := env.rooms.Admit(ctx, "r1", "tok-a")
	req.NoError(err)

	sub, err := env.bus.Subscribe(ctx, "r1")
	req.NoError(err)
	defer sub.Close()

	// strangers may not destroy
	req.ErrorIs(svc.DestroyNow(ctx, "r1", ""), domain.ErrForbidden)
	req.ErrorIs(svc.DestroyNow(ctx, "r1", "not-a-member"), domain.ErrForbidden)

	// any admitted participant may
	req.NoError(svc.DestroyNow(ctx, "r1", "tok-a"))

	ev, ok := recvEvent(t, sub)
	req.True(ok)
	req.Equal(domain.EventDestroy, ev.Name)
	req.Equal("r1", ev.RoomID)

	_, err = env.rooms.Get(ctx, "r1")
	req.ErrorIs(err, domain.ErrRoomNotFound)

	// terminal and idempotent: destroying again, by anyone, is a no-op
	req.NoError(svc.DestroyNow(ctx, "r1", "tok-a"))
	req.NoError(svc.DestroyNow(ctx, "r1", ""))
}

func TestLifecycleService_WatchExpiry(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	svc := NewLifecycleService(env.rooms, env.bus)
	ctx := context.Background()

	// watching a room that is already gone broadcasts destroy immediately
	sub, err := env.bus.Subscribe(ctx, "ghost")
	req.NoError(err)
	svc.WatchExpiry(ctx, "ghost")
	ev, ok := recvEvent(t, sub)
	req.True(ok)
	req.Equal(domain.EventDestroy, ev.Name)

	// a live room fires the broadcast once its TTL has run out
	req.NoError(env.rooms.Create(ctx, "r1", 5, 100*time.Millisecond))
	sub2, err := env.bus.Subscribe(ctx, "r1")
	req.NoError(err)
	defer sub2.Close()

	svc.WatchExpiry(ctx, "r1")
	svc.WatchExpiry(ctx, "r1") // double watch is a no-op

	// the key must actually be gone when the timer fires
	time.AfterFunc(150*time.Millisecond, func() { env.mr.FastForward(200 * time.Millisecond) })

	ev, ok = recvEvent(t, sub2)
	req.True(ok)
	req.Equal(domain.EventDestroy, ev.Name)
	req.Equal("r1", ev.RoomID)
}

func TestLifecycleService_UnwatchExpiry(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	svc := NewLifecycleService(env.rooms, env.bus)
	ctx := context.Background()

	req.NoError(env.rooms.Create(ctx, "r1", 5, 100*time.Millisecond))
	sub, err := env.bus.Subscribe(ctx, "r1")
	req.NoError(err)
	defer sub.Close()

	svc.WatchExpiry(ctx, "r1")
	svc.UnwatchExpiry("r1")

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event after unwatch: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

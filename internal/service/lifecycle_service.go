package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/fanout"
	"github.com/cwrk-planet/burner-service/internal/repo"
)

// expiryGrace pads the expiry timer so the store has certainly dropped the
// keys by the time the timer fires.
const expiryGrace = 250 * time.Millisecond

// LifecycleService enforces the self-destruct contract: remaining-TTL
// queries, explicit destruction by an admitted participant, and the
// proactive destroy broadcast when a watched room's TTL runs out. The
// store's key expiry remains the source of truth; the watcher only turns
// silent expiry into an event subscribers can see.
type LifecycleService struct {
	rooms *repo.RoomRepository
	bus   *fanout.Bus

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewLifecycleService(rooms *repo.RoomRepository, bus *fanout.Bus) *LifecycleService {
	return &LifecycleService{
		rooms:  rooms,
		bus:    bus,
		timers: make(map[string]*time.Timer),
	}
}

// Remaining returns whole seconds until self-destruct, rounded up so a
// fresh room reports its full lifetime. Expired and unknown rooms are the
// same ErrRoomNotFound outcome, distinct from zero.
func (s *LifecycleService) Remaining(ctx context.Context, roomID string) (int64, error) {
	d, err := s.rooms.TTL(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return int64((d + time.Second - 1) / time.Second), nil
}

// DestroyNow destroys the room on behalf of tok. Any admitted participant
// may destroy; unauthenticated callers may not. Destroying a room that is
// already gone is a successful no-op.
func (s *LifecycleService) DestroyNow(ctx context.Context, roomID, tok string) error {
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		return err
	}
	if tok == "" {
		return domain.ErrForbidden
	}
	member, err := s.rooms.Member(ctx, roomID, tok)
	if err != nil {
		return err
	}
	if !member {
		return domain.ErrForbidden
	}

	if err := s.rooms.Destroy(ctx, roomID); err != nil {
		return err
	}
	s.UnwatchExpiry(roomID)
	if err := s.bus.Publish(ctx, domain.Event{Name: domain.EventDestroy, RoomID: roomID}); err != nil {
		// The data is gone regardless; subscribers will hit not-found on
		// their next read.
		slog.Warn("destroy event publish failed", "room", roomID, "err", err)
	}
	return nil
}

// WatchExpiry arms a one-shot timer for roomID's remaining TTL and fires
// the destroy broadcast once the room has actually vanished. Watching an
// already-watched room is a no-op; watching a dead room broadcasts destroy
// right away.
func (s *LifecycleService) WatchExpiry(ctx context.Context, roomID string) {
	ttl, err := s.rooms.TTL(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			_ = s.bus.Publish(ctx, domain.Event{Name: domain.EventDestroy, RoomID: roomID})
		} else {
			slog.Warn("expiry watch failed", "room", roomID, "err", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[roomID]; ok {
		return
	}
	s.timers[roomID] = time.AfterFunc(ttl+expiryGrace, func() { s.expired(roomID) })
}

// UnwatchExpiry drops the timer for roomID, if any.
func (s *LifecycleService) UnwatchExpiry(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomID]; ok {
		t.Stop()
		delete(s.timers, roomID)
	}
}

func (s *LifecycleService) expired(roomID string) {
	s.mu.Lock()
	delete(s.timers, roomID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.rooms.Get(ctx, roomID); err == nil {
		// Not gone yet (timer drift): re-arm for what is left.
		s.WatchExpiry(ctx, roomID)
		return
	}
	if err := s.bus.Publish(ctx, domain.Event{Name: domain.EventDestroy, RoomID: roomID}); err != nil {
		slog.Warn("expiry event publish failed", "room", roomID, "err", err)
	}
}

// Package fanout delivers room events to every current subscriber of the
// room's channel, on top of Redis pub/sub. Delivery is fire-and-forget:
// no replay, no backlog; a reconnecting client re-fetches state instead.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/burner-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

func channel(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Publish sends ev to every live subscriber of its room.
func (b *Bus) Publish(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channel(ev.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Name, err)
	}
	return nil
}

// Subscription is a live, cancellable stream of one room's events. C closes
// after the terminal destroy event has been delivered, or after Close.
type Subscription struct {
	C <-chan domain.Event

	ps   *redis.PubSub
	once sync.Once
}

// Close cancels the subscription. Safe to call more than once and safe to
// race with the terminal event.
func (s *Subscription) Close() {
	s.once.Do(func() { _ = s.ps.Close() })
}

// Subscribe opens a stream for roomID. ctx covers the subscribe handshake
// only; the stream itself lives until Close or the destroy event.
func (b *Bus) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel(roomID))
	// Confirm the subscription before handing the stream out, so no event
	// published after this point is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe room %s: %w", roomID, err)
	}

	out := make(chan domain.Event, 16)
	sub := &Subscription{C: out, ps: ps}

	go func() {
		defer close(out)
		for m := range ps.Channel() {
			var ev domain.Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				slog.Warn("fanout: dropping malformed event", "channel", m.Channel, "err", err)
				continue
			}
			select {
			case out <- ev:
			default:
				// Slow consumer: drop rather than block the room.
				slog.Debug("fanout: subscriber lagging, event dropped",
					"room", roomID, "event", ev.Name)
			}
			if ev.Terminal() {
				sub.Close()
				return
			}
		}
	}()

	return sub, nil
}

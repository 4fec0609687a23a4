package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestMessageRepository_AppendList(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	rooms := NewRoomRepository(rdb)
	msgs := NewMessageRepository(rdb)
	ctx := context.Background()

	req.NoError(rooms.Create(ctx, "r1", 5, time.Minute))

	for i := 0; i < 5; i++ {
		err := msgs.Append(ctx, "r1", domain.Message{
			ID:        fmt.Sprintf("m%d", i),
			Sender:    "alice",
			Text:      fmt.Sprintf("message %d", i),
			Timestamp: time.Now().UnixMilli(),
		})
		req.NoError(err)
	}

	list, err := msgs.List(ctx, "r1")
	req.NoError(err)
	req.Len(list, 5)
	for i, m := range list {
		req.Equal(fmt.Sprintf("m%d", i), m.ID, "append order must be preserved")
	}
}

func TestMessageRepository_RoomGone(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	msgs := NewMessageRepository(rdb)
	ctx := context.Background()

	err := msgs.Append(ctx, "ghost", domain.Message{ID: "m1", Sender: "a", Text: "hi"})
	req.ErrorIs(err, domain.ErrRoomNotFound)

	_, err = msgs.List(ctx, "ghost")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestMessageRepository_DiesWithRoom(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	rooms := NewRoomRepository(rdb)
	msgs := NewMessageRepository(rdb)
	ctx := context.Background()

	req.NoError(rooms.Create(ctx, "r1", 5, 10*time.Second))
	req.NoError(msgs.Append(ctx, "r1", domain.Message{ID: "m1", Sender: "a", Text: "hi"}))

	// explicit destroy removes the log atomically with the meta
	req.NoError(rooms.Destroy(ctx, "r1"))
	req.False(mr.Exists(messagesKey("r1")))

	// and natural expiry takes the log down too
	req.NoError(rooms.Create(ctx, "r2", 5, 10*time.Second))
	req.NoError(msgs.Append(ctx, "r2", domain.Message{ID: "m1", Sender: "a", Text: "hi"}))
	mr.FastForward(11 * time.Second)
	req.False(mr.Exists(messagesKey("r2")))
	_, err := msgs.List(ctx, "r2")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cwrk-planet/burner-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

type MessageRepository struct {
	rdb *redis.Client
}

func NewMessageRepository(rdb *redis.Client) *MessageRepository {
	return &MessageRepository{rdb: rdb}
}

// appendScript refuses writes to a vanished room and keeps the log's expiry
// in step with the room meta, so the log never outlives the room.
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

// Append stores msg at the tail of the room's log. RPUSH order is the one
// and only message order every reader observes.
func (r *MessageRepository) Append(ctx context.Context, roomID string, msg domain.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	n, err := appendScript.Run(ctx, r.rdb,
		[]string{metaKey(roomID), messagesKey(roomID)},
		b,
	).Int()
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// List returns the full log, oldest first.
func (r *MessageRepository) List(ctx context.Context, roomID string) ([]domain.Message, error) {
	exists, err := r.rdb.Exists(ctx, metaKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domain.ErrRoomNotFound
	}
	raw, err := r.rdb.LRange(ctx, messagesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var m domain.Message
		if json.Unmarshal([]byte(item), &m) == nil {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

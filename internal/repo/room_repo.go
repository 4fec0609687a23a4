package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// AdmitResult is the outcome of an atomic admission attempt.
type AdmitResult int

const (
	AdmitNotFound  AdmitResult = iota // room unknown or expired
	AdmitReturning                    // token already in the admitted set
	AdmitAdded                        // token admitted into a free slot
	AdmitFull                         // no free slot left
)

type RoomRepository struct {
	rdb *redis.Client
}

func NewRoomRepository(rdb *redis.Client) *RoomRepository {
	return &RoomRepository{rdb: rdb}
}

// createScript refuses to overwrite an existing room and stamps the meta
// hash with its expiry in one round trip.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'createdAt', ARGV[1], 'capacity', ARGV[2], 'ttl', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// admitScript is the check-and-add at the heart of admission control.
// Membership test, capacity check and insert run as one script, so two
// racing admissions can never both take the last slot.
var admitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 'none'
end
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
	return 'member'
end
local cap = tonumber(redis.call('HGET', KEYS[1], 'capacity'))
if redis.call('SCARD', KEYS[2]) >= cap then
	return 'full'
end
redis.call('SADD', KEYS[2], ARGV[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return 'added'
`)

func (r *RoomRepository) Create(ctx context.Context, roomID string, capacity int64, ttl time.Duration) error {
	now := time.Now()
	n, err := createScript.Run(ctx, r.rdb,
		[]string{metaKey(roomID)},
		now.UnixMilli(), capacity, int64(ttl.Seconds()), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if n == 0 {
		return domain.ErrRoomExists
	}
	return nil
}

func (r *RoomRepository) Get(ctx context.Context, roomID string) (domain.RoomMeta, error) {
	vals, err := r.rdb.HGetAll(ctx, metaKey(roomID)).Result()
	if err != nil {
		return domain.RoomMeta{}, err
	}
	if len(vals) == 0 {
		return domain.RoomMeta{}, domain.ErrRoomNotFound
	}
	createdMs, err := strconv.ParseInt(vals["createdAt"], 10, 64)
	if err != nil {
		return domain.RoomMeta{}, fmt.Errorf("parse createdAt: %w", err)
	}
	capacity, err := strconv.ParseInt(vals["capacity"], 10, 64)
	if err != nil {
		return domain.RoomMeta{}, fmt.Errorf("parse capacity: %w", err)
	}
	ttlSec, err := strconv.ParseInt(vals["ttl"], 10, 64)
	if err != nil {
		return domain.RoomMeta{}, fmt.Errorf("parse ttl: %w", err)
	}
	return domain.RoomMeta{
		RoomID:    roomID,
		CreatedAt: time.UnixMilli(createdMs),
		TTL:       time.Duration(ttlSec) * time.Second,
		Capacity:  capacity,
	}, nil
}

// Admit atomically checks membership and capacity for roomID and inserts
// token when a slot is free. Idempotent for an already-admitted token.
func (r *RoomRepository) Admit(ctx context.Context, roomID, token string) (AdmitResult, error) {
	res, err := admitScript.Run(ctx, r.rdb,
		[]string{metaKey(roomID), tokensKey(roomID)},
		token,
	).Text()
	if err != nil {
		return AdmitNotFound, fmt.Errorf("admit: %w", err)
	}
	switch res {
	case "member":
		return AdmitReturning, nil
	case "added":
		return AdmitAdded, nil
	case "full":
		return AdmitFull, nil
	default:
		return AdmitNotFound, nil
	}
}

// Member reports whether token is currently admitted to roomID.
func (r *RoomRepository) Member(ctx context.Context, roomID, token string) (bool, error) {
	return r.rdb.SIsMember(ctx, tokensKey(roomID), token).Result()
}

// TTL returns the remaining lifetime of roomID from the store's own expiry.
func (r *RoomRepository) TTL(ctx context.Context, roomID string) (time.Duration, error) {
	d, err := r.rdb.PTTL(ctx, metaKey(roomID)).Result()
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, domain.ErrRoomNotFound
	}
	return d, nil
}

// Destroy removes every key of the room in a single DEL. Destroying a room
// that is already gone is a no-op.
func (r *RoomRepository) Destroy(ctx context.Context, roomID string) error {
	return r.rdb.Del(ctx, metaKey(roomID), tokensKey(roomID), messagesKey(roomID)).Err()
}

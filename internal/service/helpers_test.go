package service

import (
	"testing"

	"github.com/cwrk-planet/burner-service/internal/fanout"
	"github.com/cwrk-planet/burner-service/internal/repo"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testEnv struct {
	mr    *miniredis.Miniredis
	rooms *repo.RoomRepository
	msgs  *repo.MessageRepository
	bus   *fanout.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &testEnv{
		mr:    mr,
		rooms: repo.NewRoomRepository(rdb),
		msgs:  repo.NewMessageRepository(rdb),
		bus:   fanout.NewBus(rdb),
	}
}

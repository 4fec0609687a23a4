package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/repo"
	"github.com/cwrk-planet/burner-service/internal/token"

	"github.com/google/uuid"
)

// RoomService creates rooms. A room is born with a fixed lifetime and the
// creator already admitted as its first participant.
type RoomService struct {
	rooms    *repo.RoomRepository
	ttl      time.Duration
	capacity int64
}

func NewRoomService(rooms *repo.RoomRepository, ttl time.Duration, capacity int64) *RoomService {
	return &RoomService{rooms: rooms, ttl: ttl, capacity: capacity}
}

// Create provisions a new room and returns its meta plus the creator's
// admission token.
func (s *RoomService) Create(ctx context.Context) (domain.RoomMeta, string, error) {
	roomID := uuid.NewString()

	if err := s.rooms.Create(ctx, roomID, s.capacity, s.ttl); err != nil {
		return domain.RoomMeta{}, "", fmt.Errorf("rooms.Create: %w", err)
	}

	tok, err := token.New()
	if err != nil {
		_ = s.rooms.Destroy(ctx, roomID)
		return domain.RoomMeta{}, "", fmt.Errorf("issue token: %w", err)
	}
	res, err := s.rooms.Admit(ctx, roomID, tok)
	if err != nil {
		// roll the room back rather than leave it creatorless
		_ = s.rooms.Destroy(ctx, roomID)
		return domain.RoomMeta{}, "", fmt.Errorf("admit creator: %w", err)
	}
	if res != repo.AdmitAdded {
		// room expired between create and admit; never hand out a
		// credential that is not a member
		_ = s.rooms.Destroy(ctx, roomID)
		return domain.RoomMeta{}, "", domain.ErrRoomNotFound
	}

	meta, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return domain.RoomMeta{}, "", err
	}
	return meta, tok, nil
}

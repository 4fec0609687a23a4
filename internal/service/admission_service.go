package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/repo"
	"github.com/cwrk-planet/burner-service/internal/token"
)

// Admission is the positive outcome of evaluating a room entry request.
// New marks a freshly issued token the caller must persist as the client's
// credential for this room.
type Admission struct {
	Token string
	New   bool
}

// AdmissionService is the gate in front of all room content. It decides,
// per request, between returning participant, new participant, room full
// and room gone.
type AdmissionService struct {
	rooms *repo.RoomRepository
}

func NewAdmissionService(rooms *repo.RoomRepository) *AdmissionService {
	return &AdmissionService{rooms: rooms}
}

// Evaluate admits the presented token if it is already a member (idempotent,
// never mutates the registry, never reports full). Otherwise it issues a new
// token and attempts the atomic check-and-add; a stale presented token is
// not re-admitted. Errors: domain.ErrRoomNotFound, domain.ErrRoomFull.
func (s *AdmissionService) Evaluate(ctx context.Context, roomID, presented string) (Admission, error) {
	if presented != "" {
		member, err := s.rooms.Member(ctx, roomID, presented)
		if err != nil {
			return Admission{}, fmt.Errorf("rooms.Member: %w", err)
		}
		if member {
			return Admission{Token: presented}, nil
		}
	}

	tok, err := token.New()
	if err != nil {
		return Admission{}, fmt.Errorf("issue token: %w", err)
	}
	res, err := s.rooms.Admit(ctx, roomID, tok)
	if err != nil {
		return Admission{}, err
	}
	switch res {
	case repo.AdmitAdded:
		return Admission{Token: tok, New: true}, nil
	case repo.AdmitFull:
		return Admission{}, domain.ErrRoomFull
	default:
		return Admission{}, domain.ErrRoomNotFound
	}
}

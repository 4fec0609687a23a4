package ws

import "github.com/cwrk-planet/burner-service/internal/domain"

// Frame types pushed to clients. The channel is push-only: messages are
// sent over HTTP, so inbound frames are ignored.
const (
	TypeMessage = domain.EventMessage // a message was appended
	TypeDestroy = domain.EventDestroy // terminal, the room is gone
)

type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type MessagePayload struct {
	RoomID    string `json:"room_id"`
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type DestroyPayload struct {
	RoomID string `json:"room_id"`
}

func frameFor(ev domain.Event) Frame {
	switch {
	case ev.Name == domain.EventMessage && ev.Message != nil:
		m := ev.Message
		return Frame{Type: TypeMessage, Payload: MessagePayload{
			RoomID:    ev.RoomID,
			ID:        m.ID,
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		}}
	case ev.Name == domain.EventDestroy:
		return Frame{Type: TypeDestroy, Payload: DestroyPayload{RoomID: ev.RoomID}}
	default:
		return Frame{Type: ev.Name}
	}
}

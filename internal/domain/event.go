package domain

// Wire names of the per-room realtime events.
const (
	EventMessage = "chat.message"
	EventDestroy = "chat.destroy"
)

// Event is what goes over a room's fanout channel. EventDestroy is always
// terminal: no further events are valid for the room after it.
type Event struct {
	Name    string   `json:"event"`
	RoomID  string   `json:"roomId"`
	Message *Message `json:"message,omitempty"`
}

// Terminal reports whether the event closes the room's channel.
func (e Event) Terminal() bool { return e.Name == EventDestroy }

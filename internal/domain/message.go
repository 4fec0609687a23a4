package domain

// Message is one entry of a room's append-only log. Immutable once stored;
// the whole log dies with the room.
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

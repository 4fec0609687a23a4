package domain

import "time"

// RoomMeta is the registry record of a live room. The admitted token set
// lives alongside it in the store and is never loaded wholesale.
type RoomMeta struct {
	RoomID    string
	CreatedAt time.Time
	TTL       time.Duration
	Capacity  int64
}

// Remaining returns the lifetime left at now, clamped at zero.
func (m RoomMeta) Remaining(now time.Time) time.Duration {
	left := m.TTL - now.Sub(m.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}

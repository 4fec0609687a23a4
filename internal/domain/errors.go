package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrRoomExists   = errors.New("room already exists")
	ErrForbidden    = errors.New("not an admitted participant")
)

// ValidationError marks malformed client input (empty/oversized fields).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Package token mints opaque admission credentials for rooms.
package token

import "crypto/rand"

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	length   = 21
)

// New returns an unguessable URL-safe token. The value carries no structure:
// nothing about the room, the issue time, or a sequence can be read out of it.
func New() (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}

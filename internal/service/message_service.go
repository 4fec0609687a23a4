package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/fanout"
	"github.com/cwrk-planet/burner-service/internal/idgen"
	"github.com/cwrk-planet/burner-service/internal/repo"
)

type MessageService struct {
	messages *repo.MessageRepository
	bus      *fanout.Bus

	maxText   int
	maxSender int
}

func NewMessageService(messages *repo.MessageRepository, bus *fanout.Bus, maxText, maxSender int) *MessageService {
	return &MessageService{
		messages:  messages,
		bus:       bus,
		maxText:   maxText,
		maxSender: maxSender,
	}
}

// Append validates and stores a message, then announces it on the room's
// channel. Storage is authoritative; the announcement is best-effort.
func (s *MessageService) Append(ctx context.Context, roomID, sender, text string) (domain.Message, error) {
	sender = strings.TrimSpace(sender)
	text = strings.TrimSpace(text)

	if sender == "" {
		return domain.Message{}, &domain.ValidationError{Field: "sender", Reason: "empty"}
	}
	if len(sender) > s.maxSender {
		return domain.Message{}, &domain.ValidationError{Field: "sender", Reason: "too long"}
	}
	if text == "" {
		return domain.Message{}, &domain.ValidationError{Field: "text", Reason: "empty"}
	}
	if len(text) > s.maxText {
		return domain.Message{}, &domain.ValidationError{Field: "text", Reason: "too long"}
	}

	msg := domain.Message{
		ID:        idgen.NewMessageID(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.messages.Append(ctx, roomID, msg); err != nil {
		return domain.Message{}, err
	}

	if err := s.bus.Publish(ctx, domain.Event{Name: domain.EventMessage, RoomID: roomID, Message: &msg}); err != nil {
		// Subscribers refetch the log anyway; the message is stored.
		slog.Warn("message event publish failed", "room", roomID, "err", err)
	}
	return msg, nil
}

// List returns the room's full log, oldest first.
func (s *MessageService) List(ctx context.Context, roomID string) ([]domain.Message, error) {
	return s.messages.List(ctx, roomID)
}

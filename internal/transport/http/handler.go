package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/burner-service/internal/domain"
	"github.com/cwrk-planet/burner-service/internal/service"
	httpmw "github.com/cwrk-planet/burner-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc *service.RoomService
	lifeSvc *service.LifecycleService
	msgSvc  *service.MessageService

	secureCookies bool
}

func NewHandler(room *service.RoomService, life *service.LifecycleService, msg *service.MessageService, secureCookies bool) *Handler {
	return &Handler{
		roomSvc:       room,
		lifeSvc:       life,
		msgSvc:        msg,
		secureCookies: secureCookies,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	meta, tok, err := h.roomSvc.Create(r.Context())
	if err != nil {
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable"})
		return
	}

	// The creator is the room's first participant.
	http.SetCookie(w, httpmw.CredentialCookie(meta.RoomID, tok, h.secureCookies))

	writeJSON(w, http.StatusCreated, CreateRoomResponse{
		RoomID:   meta.RoomID,
		TTL:      int64(meta.TTL.Seconds()),
		Capacity: meta.Capacity,
	})
}

// GET /rooms/{id}/ttl
func (h *Handler) RoomTTL(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	secs, err := h.lifeSvc.Remaining(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room-not-found"})
			return
		}
		slog.Error("handler.RoomTTL:", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, TTLResponse{TTL: secs})
}

// GET /rooms/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	msgs, err := h.msgSvc.List(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room-not-found"})
			return
		}
		slog.Error("handler.ListMessages:", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable"})
		return
	}

	resp := MessagesResponse{Messages: make([]MessageItem, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, MessageItem{
			ID:        m.ID,
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /rooms/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.msgSvc.Append(r.Context(), roomID, req.Sender, req.Text)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error()})
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room-not-found"})
		default:
			slog.Error("handler.SendMessage:", slog.Any("err", err))
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, MessageItem{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	})
}

// DELETE /rooms/{id}
// Not behind the admission gate: destroying must never admit the caller as
// a side effect, so the credential is checked as-is.
func (h *Handler) DestroyRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var tok string
	if c, err := r.Cookie(httpmw.CookieName); err == nil {
		tok = c.Value
	}

	if err := h.lifeSvc.DestroyNow(r.Context(), roomID, tok); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return
		}
		slog.Error("handler.DestroyRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, DestroyResponse{Status: "destroyed"})
}

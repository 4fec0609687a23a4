package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub

	pingEvery time.Duration
}

func NewServer(hub *Hub) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /rooms/{id}/ws. The admission gate has already run; an
// unadmitted caller never reaches this handler.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	// The admission gate may have set a fresh credential cookie on w, but
	// Upgrade hijacks the connection and writes its own 101; the cookie
	// must travel in the handshake headers or the client never gets it.
	var respHeader http.Header
	if sc := w.Header().Values("Set-Cookie"); len(sc) > 0 {
		respHeader = http.Header{"Set-Cookie": sc}
	}

	conn, err := s.upgrader.Upgrade(w, r, respHeader)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, roomID)
	if err := s.hub.Join(c); err != nil {
		slog.Warn("ws join failed", "room", roomID, "err", err)
		_ = c.Close()
		return
	}

	go s.writeLoop(c)
	s.readLoop(c)

	s.hub.Leave(c)
	_ = c.Close()
}

// readLoop only keeps the connection alive and notices the client going
// away; inbound frames carry no meaning on this channel.
func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn      *websocket.Conn
	roomID    string
	sendMu    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, roomID string) *wsConn {
	return &wsConn{
		conn:   c,
		roomID: roomID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(f Frame) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(f)
}

// Close may race between the hub (room destroyed) and the handler
// (client gone); both paths are safe.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) RoomID() string { return c.roomID }

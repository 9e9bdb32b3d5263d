package app

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// upgrader follows madpsy-ka9q_ubersdr/websocket.go's settings: generous
// buffers for a binary-light, JSON-heavy protocol, manual control over
// compression (left off here, since decoded records are small), and an
// open CheckOrigin left to the deployment's own reverse proxy to lock
// down.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes the Hub over a single "/records" websocket endpoint.
type Server struct {
	hub    *Hub
	logger *slog.Logger
}

// NewServer creates a Server broadcasting from hub.
func NewServer(hub *Hub, logger *slog.Logger) *Server {
	return &Server{hub: hub, logger: logger}
}

// Handler returns the http.Handler to mount.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/records", s.handleSubscribe)
	return mux
}

// handleSubscribe upgrades the connection and keeps it registered until
// the client disconnects. Subscribers never send anything meaningful
// back; ReadMessage is only polled so gorilla/websocket can service
// control frames (ping/pong/close) and detect disconnection.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("err", err.Error()))
		return
	}

	c := s.hub.Join(conn)
	defer s.hub.Leave(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

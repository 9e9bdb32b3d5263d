// Package app implements the beacon-stream websocket fan-out: it runs the
// same Runner the beacon-decode CLI uses, but instead of writing decoded
// events to a file, it broadcasts them as JSON frames
// to every connected websocket subscriber. The connection bookkeeping is
// grounded on madpsy-ka9q_ubersdr/websocket.go's wsConn: a per-connection
// write mutex plus a buffered, non-blocking write channel so one slow
// subscriber cannot stall the broadcast to the rest.
package app

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	decodeapp "github.com/cospas-sarsat/beacon-core/cmd/beacon-decode/app"
)

const (
	clientWriteBuffer = 64
	writeTimeout      = 10 * time.Second
)

// client wraps one subscriber connection with the write-serialization and
// non-blocking drop-on-full-buffer discipline a broadcast fan-out needs.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	send    chan []byte
	done    chan struct{}
	logger  *slog.Logger
}

func newClient(conn *websocket.Conn, logger *slog.Logger) *client {
	return &client{
		conn:   conn,
		send:   make(chan []byte, clientWriteBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// writeLoop owns the connection's write side; it is the only goroutine
// that calls conn.WriteMessage, per gorilla/websocket's single-writer
// requirement.
func (c *client) writeLoop() {
	defer close(c.done)
	for frame := range c.send {
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.conn.WriteMessage(websocket.TextMessage, frame)
		c.writeMu.Unlock()
		if err != nil {
			c.logger.Debug("websocket write failed, dropping subscriber", slog.String("err", err.Error()))
			return
		}
	}
}

// enqueue attempts a non-blocking send; a full buffer means the
// subscriber is too slow and the frame is dropped rather than stalling
// the broadcast to every other subscriber.
func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Hub tracks every connected subscriber and implements decodeapp.Sink, so
// a Runner can write decoded events straight to it.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
	dropped uint64
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Join registers conn as a subscriber and starts its write loop. The
// caller owns conn's read side (or lack of one, since this protocol is
// server-push only).
func (h *Hub) Join(conn *websocket.Conn) *client {
	c := newClient(conn, h.logger)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	return c
}

// Leave unregisters a subscriber and closes its connection.
func (h *Hub) Leave(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.send)
	<-c.done
	c.conn.Close()
}

// Write implements decodeapp.Sink: it marshals ev once and fans the
// resulting frame out to every subscriber.
func (h *Hub) Write(ev decodeapp.DecodedEvent) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.enqueue(frame) {
			h.dropped++
			h.logger.Debug("subscriber buffer full, dropping frame")
		}
	}
	return nil
}

// Close implements decodeapp.Sink; the Hub itself holds no resource that
// needs releasing beyond each client's own connection, which Leave
// already handles as subscribers disconnect.
func (h *Hub) Close() error { return nil }

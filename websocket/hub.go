package websocket

import (
	"log"
	"net/http"
	"sync"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/frame"
	"github.com/gorilla/websocket"
)

const (
	// sendBacklog is the number of frames queued per client. Frames sent to
	// a client that fell further behind are dropped.
	sendBacklog = 4

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// A server application calls the Upgrade method from an HTTP request handler to initiate a connection
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn   *websocket.Conn
	format frame.Format
	send   chan []byte
}

// Hub fans the simulation frames out to the connected websocket clients and
// passes the obstacle targets they send on to the simulation.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	format frame.Format
	target func(collision.Point)
}

// NewHub creates a hub. Clients not asking for a format with the ?format=
// query parameter get frames encoded as format. Every target received is
// handed to target, which must not block.
func NewHub(format frame.Format, target func(collision.Point)) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		format:  format,
		target:  target,
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends f to every client. Each format is encoded once.
func (h *Hub) Broadcast(f *frame.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	encoded := make(map[frame.Format][]byte)
	for c := range h.clients {
		data, ok := encoded[c.format]
		if !ok {
			var err error
			if data, err = f.Encode(c.format); err != nil {
				log.Println(err)
				return
			}
			encoded[c.format] = data
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP defines the websocket connection endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := h.format
	if q := r.URL.Query().Get("format"); q != "" {
		var err error
		if format, err = frame.ParseFormat(q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// Upgrade the http connection to a WebSocket connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.Println(err)
		}
		return
	}
	c := &client{conn: conn, format: format, send: make(chan []byte, sendBacklog)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeSocket(c)
	go h.readSocket(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readSocket listens for obstacle targets sent by the client.
func (h *Hub) readSocket(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			return
		}
		t, err := frame.DecodeTarget(msg, c.format)
		if err != nil {
			log.Println(err)
			continue
		}
		h.target(t.Point())
	}
}

// writeSocket sends the queued frames and keeps the connection alive.
func (h *Hub) writeSocket(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	messageType := websocket.TextMessage
	if c.format == frame.MsgPack {
		messageType = websocket.BinaryMessage
	}
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(messageType, data); err != nil {
				log.Println(err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

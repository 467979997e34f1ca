package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gradebook/gradebook/internal/api"
	"github.com/gradebook/gradebook/internal/command"
)

// EventRecords is the event name of every message the hub sends.
const EventRecords = "records"

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod  = (pongWait * 9) / 10
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string              `json:"event"`
	Data  api.RecordsResponse `json:"data"`
}

// Hub tracks connected clients and pushes the records list to them.
type Hub struct {
	cmds     *command.Dispatcher
	interval time.Duration
	notify   chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client is one connection. send is never closed: a broadcast racing a
// disconnect may still enqueue into it, and the buffer is dropped with the
// client. done is closed exactly once, by stop, to end writePump.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
		done: make(chan struct{}),
	}
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// offer queues msg without blocking. It reports false when the client is
// stopped or its buffer is full.
func (c *client) offer(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// New creates a Hub reading records through d. A non-positive interval
// disables the refresh ticker; pushes then happen only on Notify.
func New(d *command.Dispatcher, interval time.Duration) *Hub {
	return &Hub{
		cmds:     d,
		interval: interval,
		notify:   make(chan struct{}, 1),
		clients:  make(map[*client]struct{}),
	}
}

// Notify schedules a broadcast. It never blocks; notifications that arrive
// while one is pending collapse into it.
func (h *Hub) Notify() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Run broadcasts on Notify and on every tick until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	var tick <-chan time.Time
	if h.interval > 0 {
		t := time.NewTicker(h.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			h.dropAll()
			return
		case <-h.notify:
			h.broadcast(ctx)
		case <-tick:
			h.broadcast(ctx)
		}
	}
}

// ServeHTTP upgrades the connection, sends the current list and then streams
// updates until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newClient(conn)
	h.add(c)
	defer h.drop(c)

	if data, err := h.buildMessage(r.Context()); err == nil {
		c.offer(data)
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("ws: client connected", "remote", c.conn.RemoteAddr().String())
}

// drop removes c and stops its writer. Safe to call more than once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.stop()
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	gone := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range gone {
		c.stop()
	}
}

// broadcast reads the records first, then offers the message to the clients
// connected at that point. Clients that cannot take it are dropped.
func (h *Hub) broadcast(ctx context.Context) {
	if h.Count() == 0 {
		return
	}
	data, err := h.buildMessage(ctx)
	if err != nil {
		slog.Warn("ws: encode records", "err", err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if !c.offer(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Debug("ws: dropping slow client", "remote", c.conn.RemoteAddr().String())
		h.drop(c)
	}
}

func (h *Hub) buildMessage(ctx context.Context) ([]byte, error) {
	view := h.cmds.Records(ctx)
	return json.Marshal(Message{Event: EventRecords, Data: api.BuildRecords(&view)})
}

// writePump is the only writer on the connection. It sends queued messages
// and pings until the client is stopped or a write fails.
func (c *client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind = websocket.TextMessage
			msg  []byte
		)
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return
		case msg = <-c.send:
		case <-ping.C:
			kind = websocket.PingMessage
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
		if err := c.conn.WriteMessage(kind, msg); err != nil {
			return
		}
	}
}

// readPump only services control frames; clients never send data.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

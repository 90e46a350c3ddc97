// Package ws fans committed metadata change events out to connected
// observers. Delivery is best-effort: a client whose send buffer is
// full or that is disconnected at publish time misses the event and
// re-synchronizes with a fresh list on reconnect.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBufferSize = 16
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// single trust domain, observers are not authenticated
		return true
	},
}

// ChangeEvent is what subscribers receive; they react by re-listing.
type ChangeEvent struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

type client struct {
	conn      *websocket.Conn
	sendCh    chan ChangeEvent
	closeCh   chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		_ = c.conn.Close()
	})
}

type Hub struct {
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Broadcast queues the event for every connected client. A client
// that cannot keep up is dropped rather than blocking the publisher.
func (h *Hub) Broadcast(e ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.sendCh <- e:
		default:
			h.logger.Warn("slow ws subscriber dropped")
			delete(h.clients, c)
			c.close()
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// SubscriberCount reports active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler upgrades the request and holds the standing subscription.
// The subscription is released on every exit path: client close, read
// error or write error.
func (h *Hub) Handler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		conn:    conn,
		sendCh:  make(chan ChangeEvent, sendBufferSize),
		closeCh: make(chan struct{}),
	}
	h.register(cl)
	defer h.unregister(cl)

	go cl.writer(h.logger)

	// reader loop only detects disconnect; clients send nothing
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writer(logger *zap.Logger) {
	for {
		select {
		case e := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(e); err != nil {
				logger.Debug("ws write failed", zap.Error(err))
				c.close()
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

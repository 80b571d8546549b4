// Package stream broadcasts validation verdicts to connected observers
// over a websocket, for an operations dashboard.
package stream

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tos-network/powvalidator/internal/dispatch"
	"github.com/tos-network/powvalidator/internal/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans out verdicts to every connected client.
type Hub struct {
	clients   sync.Map // clientID -> *client
	clientSeq uint64
	quit      chan struct{}
	wg        sync.WaitGroup
}

type client struct {
	id      uint64
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewHub creates an empty verdict broadcast hub.
func NewHub() *Hub {
	return &Hub{
		quit: make(chan struct{}),
	}
}

// HandleWS upgrades the request to a websocket and registers the
// connection as a verdict subscriber until it disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.Warnf("stream: websocket upgrade error: %v", err)
		return
	}

	c := &client{
		id:   atomic.AddUint64(&h.clientSeq, 1),
		conn: conn,
	}
	h.clients.Store(c.id, c)
	util.Debugf("stream: client %d connected", c.id)

	h.wg.Add(1)
	go h.readLoop(c)
}

// readLoop drains and discards client frames; this hub is server-push
// only, but it must read to detect disconnects and respond to pings.
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer func() {
		c.conn.Close()
		h.clients.Delete(c.id)
		util.Debugf("stream: client %d disconnected", c.id)
	}()

	for {
		select {
		case <-h.quit:
			return
		default:
		}
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes a verdict to every connected client.
func (h *Hub) Broadcast(v *dispatch.Verdict) {
	h.clients.Range(func(_, value interface{}) bool {
		c := value.(*client)
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(v); err != nil {
			util.Debugf("stream: write error for client %d: %v", c.id, err)
		}
		c.writeMu.Unlock()
		return true
	})
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// Stop closes every connection and waits for read loops to exit.
func (h *Hub) Stop() {
	close(h.quit)
	h.clients.Range(func(_, value interface{}) bool {
		value.(*client).conn.Close()
		return true
	})
	h.wg.Wait()
}

package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the wire frame for every realtime message in both directions.
type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

var errUnknownConnection = errors.New("unknown connection")

// conn pairs a websocket with its write mutex. gorilla/websocket allows only
// one concurrent writer per connection.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Hub tracks live connections by id and implements the orchestrator's
// Transport. It knows nothing about rooms or battles.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*conn)}
}

func (h *Hub) add(id string, ws *websocket.Conn) {
	h.mu.Lock()
	h.conns[id] = &conn{ws: ws}
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Send delivers one event to one connection. A write error closes nothing
// here; the connection's read loop notices the broken socket and tears down.
func (h *Hub) Send(connectionID, event string, data interface{}) error {
	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return errUnknownConnection
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(envelope{Event: event, Data: data})
}

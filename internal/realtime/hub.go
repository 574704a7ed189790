// README: Rooms hub; tracks connections and room membership and fans frames out at most once.
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ridedispatch/internal/logger"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	member  map[string]map[string]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		member:  make(map[string]map[string]struct{}),
		log:     logger.OrNop(log).Named("realtime"),
	}
}

// Serve takes ownership of an upgraded connection and blocks until it closes.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := newClient(uuid.NewString(), conn, h, sendBufferSize)
	h.register(c)
	h.sendTo(c.ID, EventConnected, connectedPayload{SocketID: c.ID})

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.member[c.ID] = make(map[string]struct{})
	h.mu.Unlock()
	connectionsGauge.Inc()
	c.log.Info("client connected")
}

// unregister drops the connection and every room membership it held.
func (h *Hub) unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	for room := range h.member[id] {
		h.removeFromRoom(room, id)
	}
	delete(h.member, id)
	delete(h.clients, id)
	close(c.send)
	h.mu.Unlock()

	connectionsGauge.Dec()
	c.log.Info("client disconnected")
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(room, id string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Join adds a live connection to a room. It reports false for unknown connections.
func (h *Hub) Join(connID, room string) bool {
	if room == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connID] = c
	h.member[connID][room] = struct{}{}
	return true
}

func (h *Hub) Leave(connID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.member[connID]
	if !ok {
		return false
	}
	if _, in := rooms[room]; !in {
		return false
	}
	delete(rooms, room)
	h.removeFromRoom(room, connID)
	return true
}

// EmitTo delivers to every current member of room and returns how many
// frames were queued. An empty room is not an error.
func (h *Hub) EmitTo(room, event string, data any) int {
	msg, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.rooms[room] {
		if h.enqueue(c, event, msg) {
			n++
		}
	}
	return n
}

// Broadcast delivers to every connection.
func (h *Hub) Broadcast(event string, data any) int {
	msg, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if h.enqueue(c, event, msg) {
			n++
		}
	}
	return n
}

func (h *Hub) sendTo(connID, event string, data any) bool {
	msg, err := encodeFrame(event, data)
	if err != nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	return h.enqueue(c, event, msg)
}

// enqueue never blocks; a full buffer drops the frame. Requires h.mu held.
func (h *Hub) enqueue(c *Client, event string, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		droppedFrames.Inc()
		c.log.Warn("send buffer full, frame dropped", zap.String("event", event))
		return false
	}
}

func (h *Hub) Connected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[connID]
	return ok
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"codeclive/internal/model"
)

// Hub owns the outbound side of every websocket connection
type Hub struct {
	conns map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	stop       chan struct{}
	stopOnce   sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	ID   string
	Send chan []byte
}

// BroadcastMessage is one encoded frame for one connection
type BroadcastMessage struct {
	ConnectionID string
	Data         []byte
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		stop:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			h.mu.Unlock()
			log.Debug().Str("module", "hub").Str("conn", conn.ID).Msg("registered")

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				delete(h.conns, conn.ID)
				close(conn.Send)
				log.Debug().Str("module", "hub").Str("conn", conn.ID).Msg("unregistered")
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			if conn, ok := h.conns[msg.ConnectionID]; ok {
				select {
				case conn.Send <- msg.Data:
				default:
					// a client that cannot keep up would miss state; cut it loose
					delete(h.conns, conn.ID)
					close(conn.Send)
					log.Warn().Str("module", "hub").Str("conn", conn.ID).Msg("send buffer full, closing connection")
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for id, conn := range h.conns {
				delete(h.conns, id)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.stop:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.stop:
	}
}

// Send encodes one event for one connection (implements service.Broadcaster)
func (h *Hub) Send(connectionID string, msgType model.EventType, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Str("type", string(msgType)).Msg("encode failed")
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{ConnectionID: connectionID, Data: data}:
	case <-h.stop:
	}
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Stop closes every connection's send channel and stops the hub
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func encode(msgType model.EventType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: string(msgType), Payload: raw})
}

package session

import (
	"errors"
	"sync"
	"time"

	"codeclive/internal/model"
)

var (
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrNotFound            = errors.New("connection not registered")
)

// Registry maps live connections to rooms and rooms to their rosters.
// Rosters keep join order, which the editor handoff relies on.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*model.Participant
	rooms  map[string][]string // roomID -> connection ids in join order
}

// NewRegistry creates an empty participant registry
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*model.Participant),
		rooms:  make(map[string][]string),
	}
}

// Register adds the connection to roomID and returns the updated roster
func (r *Registry) Register(connectionID, username, roomID string) ([]model.RosterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[connectionID]; ok {
		return nil, ErrDuplicateConnection
	}
	r.byConn[connectionID] = &model.Participant{
		ConnectionID: connectionID,
		Username:     username,
		RoomID:       roomID,
		JoinedAt:     time.Now().UTC(),
	}
	r.rooms[roomID] = append(r.rooms[roomID], connectionID)
	return r.rosterLocked(roomID), nil
}

// Unregister removes the connection. Calling it twice returns ErrNotFound.
func (r *Registry) Unregister(connectionID string) (*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[connectionID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.byConn, connectionID)
	r.removeFromRoomLocked(p.RoomID, connectionID)
	out := *p
	return &out, nil
}

// Lookup returns the participant registered for a connection
func (r *Registry) Lookup(connectionID string) (*model.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byConn[connectionID]
	if !ok {
		return nil, false
	}
	out := *p
	return &out, true
}

// RosterOf returns the room's participants in join order
func (r *Registry) RosterOf(roomID string) []model.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked(roomID)
}

// DropRoom unregisters every participant of a room and returns them
func (r *Registry) DropRoom(roomID string) []model.RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	roster := r.rosterLocked(roomID)
	for _, id := range r.rooms[roomID] {
		delete(r.byConn, id)
	}
	delete(r.rooms, roomID)
	return roster
}

// Rooms returns the participant count of every non-empty room
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.rooms))
	for id, conns := range r.rooms {
		out[id] = len(conns)
	}
	return out
}

func (r *Registry) rosterLocked(roomID string) []model.RosterEntry {
	conns := r.rooms[roomID]
	roster := make([]model.RosterEntry, 0, len(conns))
	for _, id := range conns {
		roster = append(roster, r.byConn[id].Entry())
	}
	return roster
}

func (r *Registry) removeFromRoomLocked(roomID, connectionID string) {
	conns := r.rooms[roomID]
	for i, id := range conns {
		if id == connectionID {
			conns = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.rooms, roomID)
		return
	}
	r.rooms[roomID] = conns
}

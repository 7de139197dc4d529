// Package session holds the in-memory state of live rooms: the shared
// snapshot of each room and the roster of connections inside it.
package session

import (
	"errors"
	"sort"
	"sync"

	"codeclive/internal/model"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomNotInitialized = errors.New("room not initialized")
)

// Store keeps one RoomSession per room id. Callers only ever see copies;
// ApplyUpdate is the single way to change a snapshot.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*model.RoomSession
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*model.RoomSession),
	}
}

// Init creates the room from initial unless it already exists.
// It returns a copy of the room and whether it was created.
func (s *Store) Init(roomID string, initial *model.RoomSession) (*model.RoomSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rooms[roomID]; ok {
		return existing.Clone(), false
	}
	sess := initial.Clone()
	sess.RoomID = roomID
	s.rooms[roomID] = sess
	return sess.Clone(), true
}

// Get returns a copy of the room's current state
func (s *Store) Get(roomID string) (*model.RoomSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return sess.Clone(), nil
}

// Snapshot returns an immutable copy suitable for rehydrating a client
func (s *Store) Snapshot(roomID string) (*model.RoomSession, error) {
	return s.Get(roomID)
}

// ApplyUpdate merges patch into the room and returns the new full state
func (s *Store) ApplyUpdate(roomID string, patch *model.SessionPatch) (*model.RoomSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotInitialized
	}
	patch.Apply(sess)
	return sess.Clone(), nil
}

// Delete removes the room; it reports whether the room existed
func (s *Store) Delete(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.rooms[roomID]
	delete(s.rooms, roomID)
	return ok
}

// Rooms lists the ids of all initialized rooms in sorted order
func (s *Store) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

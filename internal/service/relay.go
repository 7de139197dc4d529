package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeclive/internal/model"
	"codeclive/internal/session"
)

// ConnState is where a connection is in its lifecycle
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnected
	StateActive
	StateJoined
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateActive:
		return "active"
	case StateJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

type peer struct {
	state    ConnState
	identity *model.Identity // nil for anonymous connections
	username string
	roomID   string
}

// Relay is the live coding session relay: it owns connection lifecycles,
// applies commands to room state and fans the results out.
type Relay struct {
	sessions *session.Store
	roster   *session.Registry
	locks    *roomLocks
	timeout  time.Duration

	out     Broadcaster
	gateway SessionGateway
	mirror  *Mirror
	audit   *AuditLog

	peersMu sync.Mutex
	peers   map[string]*peer
}

// NewRelay creates a relay over the given store and registry.
// commandTimeout bounds how long a command waits for its room.
func NewRelay(sessions *session.Store, roster *session.Registry, commandTimeout time.Duration) *Relay {
	if commandTimeout <= 0 {
		commandTimeout = 5 * time.Second
	}
	return &Relay{
		sessions: sessions,
		roster:   roster,
		locks:    newRoomLocks(),
		timeout:  commandTimeout,
		peers:    make(map[string]*peer),
	}
}

// SetBroadcaster sets the outbound transport
func (r *Relay) SetBroadcaster(b Broadcaster) {
	r.out = b
}

// SetGateway enables restoring rooms from gateway and mirroring changes through mirror
func (r *Relay) SetGateway(gateway SessionGateway, mirror *Mirror) {
	r.gateway = gateway
	r.mirror = mirror
}

// SetAuditLog sets where room activity is recorded
func (r *Relay) SetAuditLog(a *AuditLog) {
	r.audit = a
}

// State returns the lifecycle state of a connection
func (r *Relay) State(connectionID string) ConnState {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	if p, ok := r.peers[connectionID]; ok {
		return p.state
	}
	return StateDisconnected
}

func (r *Relay) lockRoom(ctx context.Context, roomID string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	release, err := r.locks.acquire(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s did not respond: %v", ErrRoomNotFound, roomID, err)
	}
	return release, nil
}

func (r *Relay) send(connectionID string, evt model.EventType, payload interface{}) {
	if r.out == nil {
		return
	}
	r.out.Send(connectionID, evt, payload)
}

func (r *Relay) toRoom(roster []model.RosterEntry, evt model.EventType, payload interface{}) {
	for _, e := range roster {
		r.send(e.ConnectionID, evt, payload)
	}
}

func (r *Relay) toOthers(roster []model.RosterEntry, except string, evt model.EventType, payload interface{}) {
	for _, e := range roster {
		if e.ConnectionID != except {
			r.send(e.ConnectionID, evt, payload)
		}
	}
}

// toMentor sends to every connection of the mentor and reports how many got it
func (r *Relay) toMentor(roster []model.RosterEntry, mentor string, evt model.EventType, payload interface{}) int {
	n := 0
	for _, e := range roster {
		if e.Username == mentor {
			r.send(e.ConnectionID, evt, payload)
			n++
		}
	}
	return n
}

func learnersOf(roster []model.RosterEntry, mentor string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(roster))
	for _, e := range roster {
		if e.Username == mentor || seen[e.Username] {
			continue
		}
		seen[e.Username] = true
		out = append(out, e.Username)
	}
	return out
}

func inRoster(roster []model.RosterEntry, connectionID string) (model.RosterEntry, bool) {
	for _, e := range roster {
		if e.ConnectionID == connectionID {
			return e, true
		}
	}
	return model.RosterEntry{}, false
}

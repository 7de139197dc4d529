package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"codeclive/internal/model"
	"codeclive/internal/session"
)

type frame struct {
	conn    string
	evt     model.EventType
	payload interface{}
}

// recorder is a Broadcaster that keeps every frame in send order
type recorder struct {
	mu     sync.Mutex
	frames []frame
}

func (r *recorder) Send(connectionID string, evt model.EventType, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame{conn: connectionID, evt: evt, payload: payload})
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

func (r *recorder) all() []frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]frame(nil), r.frames...)
}

// events lists the event types one connection received, in order
func (r *recorder) events(conn string) []model.EventType {
	var out []model.EventType
	for _, f := range r.all() {
		if f.conn == conn {
			out = append(out, f.evt)
		}
	}
	return out
}

// last returns the most recent payload of evt sent to conn
func (r *recorder) last(conn string, evt model.EventType) (interface{}, bool) {
	frames := r.all()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].conn == conn && frames[i].evt == evt {
			return frames[i].payload, true
		}
	}
	return nil, false
}

func (r *recorder) count(conn string, evt model.EventType) int {
	n := 0
	for _, f := range r.all() {
		if f.conn == conn && f.evt == evt {
			n++
		}
	}
	return n
}

// fakeGateway is an in-memory SessionGateway
type fakeGateway struct {
	mu      sync.Mutex
	records map[string]*model.LiveRoomRecord
	getErr  error
	delWait time.Duration // Delete sleeps this long before removing
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: make(map[string]*model.LiveRoomRecord)}
}

func (g *fakeGateway) Get(_ context.Context, roomID string) (*model.LiveRoomRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	rec, ok := g.records[roomID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (g *fakeGateway) Create(_ context.Context, rec *model.LiveRoomRecord) (*model.LiveRoomRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.records[rec.ID]; ok {
		return nil, fmt.Errorf("room %s already has a record", rec.ID)
	}
	cp := *rec
	g.records[rec.ID] = &cp
	return rec, nil
}

func (g *fakeGateway) Update(_ context.Context, roomID string, patch *model.LiveRoomPatch) (*model.LiveRoomRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[roomID]
	if !ok {
		return nil, nil
	}
	patch.ApplyTo(rec)
	cp := *rec
	return &cp, nil
}

func (g *fakeGateway) Delete(_ context.Context, roomID string) error {
	time.Sleep(g.delWait)
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, roomID)
	return nil
}

func (g *fakeGateway) record(roomID string) *model.LiveRoomRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.records[roomID]; ok {
		cp := *rec
		return &cp
	}
	return nil
}

// fakeSink collects audit entries
type fakeSink struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
}

func (s *fakeSink) Append(_ context.Context, e *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Message)
	}
	return out
}

type harness struct {
	relay *Relay
	out   *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	r := NewRelay(session.NewStore(), session.NewRegistry(), time.Second)
	out := &recorder{}
	r.SetBroadcaster(out)
	return &harness{relay: r, out: out}
}

func (h *harness) mentor(t *testing.T, conn, roomID string) {
	t.Helper()
	h.relay.Connect(conn, &model.Identity{Username: "mina", Role: model.RoleMentor})
	require.NoError(t, h.relay.Init(context.Background(), conn, InitOptions{RoomID: roomID}))
}

func (h *harness) learner(t *testing.T, conn, username, roomID string) {
	t.Helper()
	h.relay.Connect(conn, &model.Identity{Username: username, Role: model.RoleLearner})
	require.NoError(t, h.relay.Join(context.Background(), conn, "", roomID))
}

func (h *harness) handle(conn string, cmd Command) error {
	return h.relay.Handle(context.Background(), conn, cmd)
}

func (h *harness) session(t *testing.T, roomID string) *model.RoomSession {
	t.Helper()
	s, err := h.relay.sessions.Snapshot(roomID)
	require.NoError(t, err)
	return s
}

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }

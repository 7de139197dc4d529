package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclive/internal/model"
)

func TestRoomService_ActiveRooms(t *testing.T) {
	h := newHarness(t)
	svc := NewRoomService(h.relay)
	assert.Empty(t, svc.ActiveRooms())

	h.mentor(t, "m1", "R2")
	h.mentor(t, "m2", "R1")
	h.learner(t, "l1", "lee", "R1")
	require.NoError(t, h.handle("m2", StartCall{Link: "https://meet/x"}))

	rooms := svc.ActiveRooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "R1", rooms[0].RoomID)
	assert.Equal(t, 2, rooms[0].Participants)
	assert.True(t, rooms[0].CallActive)
	assert.Equal(t, "R2", rooms[1].RoomID)
	assert.Equal(t, 1, rooms[1].Participants)
	assert.False(t, rooms[1].CallActive)
}

func TestRoomService_SnapshotAndRoster(t *testing.T) {
	h := newHarness(t)
	svc := NewRoomService(h.relay)

	_, err := svc.Snapshot("R1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = svc.Roster("R1")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	h.mentor(t, "m1", "R1")
	h.learner(t, "l1", "lee", "R1")
	require.NoError(t, h.handle("m1", UpdateEditor{Code: "a"}))

	snap, err := svc.Snapshot("R1")
	require.NoError(t, err)
	assert.Equal(t, "a", snap.Code)
	snap.Code = "mutated"
	assert.Equal(t, "a", h.session(t, "R1").Code)

	roster, err := svc.Roster("R1")
	require.NoError(t, err)
	assert.Equal(t, []model.RosterEntry{
		{ConnectionID: "m1", Username: "mina"},
		{ConnectionID: "l1", Username: "lee"},
	}, roster)
}

func TestRoomService_EndRoom(t *testing.T) {
	h := newHarness(t)
	svc := NewRoomService(h.relay)
	ctx := context.Background()

	assert.ErrorIs(t, svc.EndRoom(ctx, "R1", "mina"), ErrRoomNotFound)

	h.mentor(t, "m1", "R1")
	h.learner(t, "l1", "lee", "R1")

	assert.ErrorIs(t, svc.EndRoom(ctx, "R1", "lee"), ErrNotAuthorized)
	require.NoError(t, svc.EndRoom(ctx, "R1", "mina"))

	assert.Equal(t, 1, h.out.count("l1", model.EvtRoomEnded))
	assert.Empty(t, svc.ActiveRooms())
	assert.Equal(t, StateActive, h.relay.State("l1"))
}

type fakeHistory struct {
	*fakeGateway
}

func (h fakeHistory) ListByMentor(_ context.Context, username string) ([]*model.LiveRoomRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*model.LiveRoomRecord
	for _, rec := range h.records {
		if rec.Mentor.Username == username {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTrail struct {
	entries []*model.AuditEntry
}

func (f *fakeTrail) ListByRoom(_ context.Context, roomID string, limit int64) ([]*model.AuditEntry, error) {
	var out []*model.AuditEntry
	for _, e := range f.entries {
		if e.RoomID == roomID && int64(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestRoomService_ArchiveUnavailable(t *testing.T) {
	h := newHarness(t)
	svc := NewRoomService(h.relay)
	ctx := context.Background()

	_, err := svc.MentorRooms(ctx, "mina")
	assert.ErrorIs(t, err, ErrArchiveUnavailable)
	_, err = svc.AuditTrail(ctx, "R1", "mina", 10)
	assert.ErrorIs(t, err, ErrArchiveUnavailable)
}

func TestRoomService_MentorRooms(t *testing.T) {
	h := newHarness(t)
	gw := newFakeGateway()
	gw.records["R1"] = &model.LiveRoomRecord{ID: "R1", Mentor: model.MentorIdentity{Username: "mina"}}
	gw.records["R2"] = &model.LiveRoomRecord{ID: "R2", Mentor: model.MentorIdentity{Username: "omar"}}
	svc := NewRoomService(h.relay)
	svc.SetArchive(fakeHistory{gw}, nil)

	recs, err := svc.MentorRooms(context.Background(), "mina")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "R1", recs[0].ID)

	recs, err = svc.MentorRooms(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRoomService_AuditTrail(t *testing.T) {
	h := newHarness(t)
	gw := newFakeGateway()
	gw.records["OLD"] = &model.LiveRoomRecord{ID: "OLD", Mentor: model.MentorIdentity{Username: "mina"}}
	trail := &fakeTrail{entries: []*model.AuditEntry{
		{RoomID: "R1", Message: "mina did initialize the room"},
		{RoomID: "R1", Message: "lee did join the room"},
		{RoomID: "OLD", Message: "mina did end the room"},
	}}
	svc := NewRoomService(h.relay)
	svc.SetArchive(fakeHistory{gw}, trail)
	ctx := context.Background()

	h.mentor(t, "m1", "R1")

	entries, err := svc.AuditTrail(ctx, "R1", "mina", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mina did initialize the room", entries[0].Message)

	_, err = svc.AuditTrail(ctx, "R1", "lee", 10)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// ended rooms are resolved through the durable record
	entries, err = svc.AuditTrail(ctx, "OLD", "mina", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.AuditTrail(ctx, "GONE", "mina", 10)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomService_CanView(t *testing.T) {
	h := newHarness(t)
	svc := NewRoomService(h.relay)

	assert.ErrorIs(t, svc.CanView("R1", "mina"), ErrRoomNotFound)

	h.mentor(t, "m1", "R1")
	h.learner(t, "l1", "lee", "R1")

	assert.NoError(t, svc.CanView("R1", "mina"))
	assert.NoError(t, svc.CanView("R1", "lee"))
	assert.ErrorIs(t, svc.CanView("R1", "eve"), ErrNotAuthorized)

	h.relay.Disconnect("l1", "disconnect")
	assert.ErrorIs(t, svc.CanView("R1", "lee"), ErrNotAuthorized)
}

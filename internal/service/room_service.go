package service

import (
	"context"
	"fmt"
	"sort"

	"codeclive/internal/model"
)

// RoomHistory reads durable room records
type RoomHistory interface {
	Get(ctx context.Context, roomID string) (*model.LiveRoomRecord, error)
	ListByMentor(ctx context.Context, username string) ([]*model.LiveRoomRecord, error)
}

// AuditReader reads a room's activity log in the order it was written
type AuditReader interface {
	ListByRoom(ctx context.Context, roomID string, limit int64) ([]*model.AuditEntry, error)
}

// RoomService answers operator queries about live rooms
type RoomService struct {
	relay   *Relay
	history RoomHistory
	trail   AuditReader
}

// NewRoomService creates a new room service
func NewRoomService(relay *Relay) *RoomService {
	return &RoomService{relay: relay}
}

// ActiveRooms lists every initialized room, sorted by id
func (s *RoomService) ActiveRooms() []model.RoomSummary {
	counts := s.relay.roster.Rooms()
	ids := s.relay.sessions.Rooms()

	out := make([]model.RoomSummary, 0, len(ids))
	for _, id := range ids {
		sess, err := s.relay.sessions.Snapshot(id)
		if err != nil {
			// ended between listing and reading
			continue
		}
		out = append(out, summarize(sess, counts[id]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Snapshot returns a copy of a room's shared state
func (s *RoomService) Snapshot(roomID string) (*model.RoomSession, error) {
	sess, err := s.relay.sessions.Snapshot(roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return sess, nil
}

// Roster returns the room's participants in join order
func (s *RoomService) Roster(roomID string) ([]model.RosterEntry, error) {
	if _, err := s.relay.sessions.Get(roomID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return s.relay.roster.RosterOf(roomID), nil
}

// CanView reports whether username may read roomID's state: its mentor
// or someone currently in it.
func (s *RoomService) CanView(roomID, username string) error {
	sess, err := s.relay.sessions.Get(roomID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if sess.IsMentor(username) {
		return nil
	}
	for _, e := range s.relay.roster.RosterOf(roomID) {
		if e.Username == username {
			return nil
		}
	}
	return fmt.Errorf("%w: not in room %s", ErrNotAuthorized, roomID)
}

// EndRoom closes the room on behalf of its mentor
func (s *RoomService) EndRoom(ctx context.Context, roomID, username string) error {
	release, err := s.relay.lockRoom(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()

	sess, err := s.relay.sessions.Get(roomID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if !sess.IsMentor(username) {
		return fmt.Errorf("%w: not the room's mentor", ErrNotAuthorized)
	}
	s.relay.endRoomLocked(roomID, username, "ended", true)
	return nil
}

// SetArchive enables the durable queries. Either argument may be nil.
func (s *RoomService) SetArchive(history RoomHistory, trail AuditReader) {
	s.history = history
	s.trail = trail
}

// MentorRooms lists the durable records of rooms opened by username
func (s *RoomService) MentorRooms(ctx context.Context, username string) ([]*model.LiveRoomRecord, error) {
	if s.history == nil {
		return nil, ErrArchiveUnavailable
	}
	recs, err := s.history.ListByMentor(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list rooms of %s: %w", username, err)
	}
	if recs == nil {
		recs = []*model.LiveRoomRecord{}
	}
	return recs, nil
}

// AuditTrail returns up to limit audit entries of roomID. Only the room's
// mentor may read it.
func (s *RoomService) AuditTrail(ctx context.Context, roomID, username string, limit int64) ([]*model.AuditEntry, error) {
	if s.trail == nil {
		return nil, ErrArchiveUnavailable
	}
	mentor, err := s.mentorOf(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if mentor != username {
		return nil, fmt.Errorf("%w: not the room's mentor", ErrNotAuthorized)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.trail.ListByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit of %s: %w", roomID, err)
	}
	if entries == nil {
		entries = []*model.AuditEntry{}
	}
	return entries, nil
}

// mentorOf looks the room up live first, then in the durable records
func (s *RoomService) mentorOf(ctx context.Context, roomID string) (string, error) {
	if sess, err := s.relay.sessions.Get(roomID); err == nil {
		return sess.Mentor.Username, nil
	}
	if s.history != nil {
		rec, err := s.history.Get(ctx, roomID)
		if err != nil {
			return "", fmt.Errorf("load room %s: %w", roomID, err)
		}
		if rec != nil {
			return rec.Mentor.Username, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
}

func summarize(sess *model.RoomSession, participants int) model.RoomSummary {
	return model.RoomSummary{
		RoomID:       sess.RoomID,
		Mentor:       sess.Mentor,
		Participants: participants,
		CallActive:   sess.CallLink != "",
		Frozen:       sess.Frozen,
		UpdatedAt:    sess.UpdatedAt,
	}
}

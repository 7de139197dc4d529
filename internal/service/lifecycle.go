package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"codeclive/internal/model"
	"codeclive/internal/session"
)

// InitOptions seed a room the first time its mentor opens it
type InitOptions struct {
	RoomID   string          `json:"roomId"`
	Language string          `json:"language,omitempty"`
	Code     string          `json:"code,omitempty"`
	TestCase json.RawMessage `json:"testCase,omitempty"`
}

// Connect records a new transport connection. identity is nil when the
// connection was not authenticated.
func (r *Relay) Connect(connectionID string, identity *model.Identity) {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	r.peers[connectionID] = &peer{state: StateConnected, identity: identity}
	log.Debug().Str("module", "relay").Str("conn", connectionID).Msg("connected")
}

// Announce is the client's "active" message: it names the user and the
// room it intends to join. Repeating it works as a heartbeat.
func (r *Relay) Announce(connectionID, username, roomID string) error {
	p, err := r.activate(connectionID, username, roomID)
	if err != nil && !errors.Is(err, ErrAlreadyJoined) {
		return err
	}
	log.Debug().Str("module", "relay").Str("conn", connectionID).Str("user", p.username).Str("room", roomID).Msg("active")
	return nil
}

// activate moves a connection to Active and settles its username.
// It returns a copy of the peer; ErrAlreadyJoined still comes with the peer.
func (r *Relay) activate(connectionID, username, roomID string) (peer, error) {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()

	p, ok := r.peers[connectionID]
	if !ok || p.state == StateDisconnected {
		return peer{}, ErrDisconnected
	}
	if p.state == StateJoined {
		return *p, ErrAlreadyJoined
	}
	if p.identity != nil {
		if username != "" && username != p.identity.Username {
			return peer{}, fmt.Errorf("%w: username does not match token", ErrNotAuthorized)
		}
		username = p.identity.Username
	}
	if username == "" {
		username = p.username
	}
	if username == "" {
		return peer{}, fmt.Errorf("%w: username is required", ErrInvalidPayload)
	}
	p.username = username
	if roomID != "" {
		p.roomID = roomID
	}
	p.state = StateActive
	return *p, nil
}

func (r *Relay) setState(connectionID string, state ConnState, roomID string) {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	if p, ok := r.peers[connectionID]; ok && p.state != StateDisconnected {
		p.state = state
		p.roomID = roomID
	}
}

// Init opens roomID with the caller as mentor and joins it. An existing
// room is re-attached when the caller is its mentor; otherwise the room is
// restored from the gateway or created fresh.
func (r *Relay) Init(ctx context.Context, connectionID string, opts InitOptions) error {
	if opts.RoomID == "" {
		return fmt.Errorf("%w: roomId is required", ErrInvalidPayload)
	}
	p, err := r.activate(connectionID, "", opts.RoomID)
	if err != nil {
		return err
	}
	if p.identity != nil && p.identity.Role != model.RoleMentor {
		return fmt.Errorf("%w: only mentors can open a room", ErrNotAuthorized)
	}

	release, err := r.lockRoom(ctx, opts.RoomID)
	if err != nil {
		return err
	}
	defer release()

	if sess, err := r.sessions.Get(opts.RoomID); err == nil {
		if !sess.IsMentor(p.username) {
			return fmt.Errorf("%w: room %s belongs to another mentor", ErrNotAuthorized, opts.RoomID)
		}
	} else if err := r.openRoom(ctx, p, opts); err != nil {
		return err
	}
	return r.joinLocked(connectionID, p.username, opts.RoomID)
}

func (r *Relay) openRoom(ctx context.Context, p peer, opts InitOptions) error {
	mentor := model.MentorIdentity{ID: p.username, Username: p.username}
	if p.identity != nil {
		mentor = p.identity.MentorIdentity()
	}

	if r.gateway != nil {
		loadCtx, cancel := context.WithTimeout(ctx, r.timeout)
		rec, err := r.gateway.Get(loadCtx, opts.RoomID)
		cancel()
		if err != nil {
			// a fresh room would be mirrored over the unread record
			log.Warn().Err(err).Str("module", "relay").Str("room", opts.RoomID).Msg("could not load room record")
			return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, opts.RoomID, err)
		}
		if rec != nil {
			if rec.Mentor.Username != p.username {
				return fmt.Errorf("%w: room %s belongs to another mentor", ErrNotAuthorized, opts.RoomID)
			}
			r.sessions.Init(opts.RoomID, rec.Session())
			log.Info().Str("module", "relay").Str("room", opts.RoomID).Msg("room restored")
			r.audit.Record(opts.RoomID, p.username, "restore the room")
			return nil
		}
	}

	fresh := model.NewRoomSession(opts.RoomID, mentor)
	fresh.Code = opts.Code
	fresh.LanguageUsed = opts.Language
	if len(opts.TestCase) > 0 {
		fresh.TestCase = opts.TestCase
	}
	sess, created := r.sessions.Init(opts.RoomID, fresh)
	if created {
		r.mirror.Created(model.NewLiveRoomRecord(sess, []string{}))
	}
	log.Info().Str("module", "relay").Str("room", opts.RoomID).Str("mentor", mentor.Username).Msg("room initialized")
	r.audit.Record(opts.RoomID, p.username, "initialize the room")
	return nil
}

// Join adds the connection to an initialized room. A second join from the
// same connection fails with ErrAlreadyJoined and changes nothing.
func (r *Relay) Join(ctx context.Context, connectionID, username, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: roomId is required", ErrInvalidPayload)
	}
	p, err := r.activate(connectionID, username, roomID)
	if err != nil {
		return err
	}

	release, err := r.lockRoom(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := r.sessions.Get(roomID); err != nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return r.joinLocked(connectionID, p.username, roomID)
}

// joinLocked registers the connection and rehydrates the room. The room
// lock must be held.
func (r *Relay) joinLocked(connectionID, username, roomID string) error {
	roster, err := r.roster.Register(connectionID, username, roomID)
	if errors.Is(err, session.ErrDuplicateConnection) {
		return ErrAlreadyJoined
	}
	if err != nil {
		return err
	}
	r.setState(connectionID, StateJoined, roomID)

	sess, err := r.sessions.Get(roomID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	isMentor := sess.IsMentor(username)

	if sess.Editor.Kind == model.AuthorityNone {
		auth := model.DelegatedAuthority(model.RosterEntry{ConnectionID: connectionID, Username: username})
		if isMentor {
			auth = model.MentorAuthority(sess.Mentor)
		}
		patch := &model.SessionPatch{Editor: &auth}
		if sess, err = r.sessions.ApplyUpdate(roomID, patch); err != nil {
			return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
		}
		r.mirror.Updated(roomID, model.RecordPatch(patch))
	}

	r.send(connectionID, model.EvtJoinSuccess, JoinSuccessPayload{
		RoomID:       roomID,
		ConnectionID: connectionID,
		Username:     username,
		IsMentor:     isMentor,
	})
	r.toRoom(roster, model.EvtRoster, RosterPayload{RoomID: roomID, Participants: roster})
	r.rehydrate(roster, sess)

	learners := learnersOf(roster, sess.Mentor.Username)
	r.mirror.Updated(roomID, &model.LiveRoomPatch{Learners: &learners})
	r.audit.Record(roomID, username, "join the room")
	log.Info().Str("module", "relay").Str("room", roomID).Str("conn", connectionID).Str("user", username).Int("participants", len(roster)).Msg("joined")
	return nil
}

// Disconnect tears a connection down. It is safe to call more than once and
// for connections that never joined.
func (r *Relay) Disconnect(connectionID, reason string) {
	r.peersMu.Lock()
	delete(r.peers, connectionID)
	r.peersMu.Unlock()

	p, ok := r.roster.Lookup(connectionID)
	if !ok {
		return
	}

	release, err := r.locks.acquire(context.Background(), p.RoomID)
	if err != nil {
		return
	}
	defer release()

	left, err := r.roster.Unregister(connectionID)
	if err != nil {
		return
	}
	roomID := left.RoomID
	roster := r.roster.RosterOf(roomID)

	r.toRoom(roster, model.EvtUserLeft, UserLeftPayload{ConnectionID: connectionID, Username: left.Username, Reason: reason})
	r.toRoom(roster, model.EvtRoster, RosterPayload{RoomID: roomID, Participants: roster})
	log.Info().Str("module", "relay").Str("room", roomID).Str("conn", connectionID).Str("user", left.Username).Str("reason", reason).Msg("left")

	sess, err := r.sessions.Get(roomID)
	if err != nil {
		return
	}

	patch := &model.SessionPatch{}
	changed := false
	if sess.FrozenFor[connectionID] || sess.HiddenFor[connectionID] {
		patch.Forget = connectionID
		changed = true
	}
	handoff := false
	if sess.Editor.HeldBy(connectionID, left.Username) {
		next := nextAuthority(sess.Mentor, roster)
		if next != sess.Editor {
			patch.Editor = &next
			changed = true
			handoff = true
		}
	}
	if changed {
		if sess, err = r.sessions.ApplyUpdate(roomID, patch); err != nil {
			return
		}
	}
	if handoff {
		r.toRoom(roster, model.EvtEditorChanged, sess.Editor)
		log.Info().Str("module", "relay").Str("room", roomID).Str("editor", sess.Editor.Username).Str("kind", string(sess.Editor.Kind)).Msg("editor handed off")
	}

	rp := model.RecordPatch(patch)
	learners := learnersOf(roster, sess.Mentor.Username)
	rp.Learners = &learners
	r.mirror.Updated(roomID, rp)
	r.audit.Record(roomID, left.Username, "leave the room")
}

package service

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"codeclive/internal/model"
)

type scope int

const (
	scopeRoom   scope = iota // everyone in the room
	scopeOthers              // everyone but the sender
	scopeTarget              // one connection
	scopeMentor              // the mentor's connections
)

type delivery struct {
	scope   scope
	target  string
	evt     model.EventType
	payload interface{}
}

// Handle runs one command from a joined connection. Errors are meant for
// the sender only; nothing is broadcast when a command fails.
func (r *Relay) Handle(ctx context.Context, connectionID string, cmd Command) (err error) {
	sender, ok := r.roster.Lookup(connectionID)
	if !ok {
		return ErrNotJoined
	}

	release, err := r.lockRoom(ctx, sender.RoomID)
	if err != nil {
		return err
	}
	defer release()
	defer func() {
		if rec := recover(); rec != nil {
			err = r.failRoom(sender.RoomID, rec)
		}
	}()

	// the room may have ended while we waited for it
	if sender, ok = r.roster.Lookup(connectionID); !ok {
		return ErrNotJoined
	}
	sess, err := r.sessions.Get(sender.RoomID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, sender.RoomID)
	}
	return r.dispatch(sender, sess, cmd)
}

func (r *Relay) dispatch(sender *model.Participant, sess *model.RoomSession, cmd Command) error {
	isMentor := sess.IsMentor(sender.Username)
	mentorOnly := func() error {
		if !isMentor {
			return fmt.Errorf("%w: %s is mentor only", ErrNotAuthorized, cmd.Kind())
		}
		return nil
	}

	switch c := cmd.(type) {
	case UpdateEditor:
		if !isMentor {
			if sess.IsFrozenFor(sender.ConnectionID) {
				return ErrFrozenBufferEdit
			}
			if !sess.Editor.HeldBy(sender.ConnectionID, sender.Username) {
				return fmt.Errorf("%w: you do not hold the editor", ErrNotAuthorized)
			}
		}
		return r.commit(sender, sess, &model.SessionPatch{Code: &c.Code}, "modify the code",
			delivery{scope: scopeOthers, evt: model.EvtUpdatedEditor, payload: CodePayload{Code: c.Code}})

	case UpdateLearnerEditor:
		if isMentor {
			return fmt.Errorf("%w: %s is for learners", ErrNotAuthorized, cmd.Kind())
		}
		if sess.IsFrozenFor(sender.ConnectionID) {
			return ErrFrozenBufferEdit
		}
		return r.commit(sender, sess, nil, "update their editor",
			delivery{scope: scopeMentor, evt: model.EvtUpdatedLearnerEditor, payload: LearnerCodePayload{
				ConnectionID: sender.ConnectionID,
				Username:     sender.Username,
				Code:         c.Code,
			}})

	case FreezeAll:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{Frozen: &c.Value}, fmt.Sprintf("set freeze to %t for everyone", c.Value),
			delivery{scope: scopeRoom, evt: model.EvtFreeze, payload: FlagPayload{Value: c.Value}})

	case FreezeOne:
		if err := mentorOnly(); err != nil {
			return err
		}
		target, err := r.target(sess.RoomID, c.Target)
		if err != nil {
			return err
		}
		flag := &model.TargetFlag{ConnectionID: target.ConnectionID, Value: c.Value}
		return r.commit(sender, sess, &model.SessionPatch{FrozenFor: flag}, fmt.Sprintf("set freeze to %t for %s", c.Value, target.Username),
			delivery{scope: scopeTarget, target: target.ConnectionID, evt: model.EvtFreeze, payload: FlagPayload{Value: c.Value}})

	case HideToAll:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{HiddenFromAll: &c.Value}, fmt.Sprintf("set hide to %t for everyone", c.Value),
			delivery{scope: scopeRoom, evt: model.EvtHideEditor, payload: FlagPayload{Value: c.Value}})

	case HideToOne:
		if err := mentorOnly(); err != nil {
			return err
		}
		target, err := r.target(sess.RoomID, c.Target)
		if err != nil {
			return err
		}
		flag := &model.TargetFlag{ConnectionID: target.ConnectionID, Value: c.Value}
		return r.commit(sender, sess, &model.SessionPatch{HiddenFor: flag}, fmt.Sprintf("set hide to %t for %s", c.Value, target.Username),
			delivery{scope: scopeTarget, target: target.ConnectionID, evt: model.EvtHideEditor, payload: FlagPayload{Value: c.Value}})

	case UpdateMeetLink:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{CallLink: &c.Link}, "update the meet link",
			delivery{scope: scopeRoom, evt: model.EvtReceiveCallLink, payload: CallLinkPayload{Link: c.Link}})

	case ProblemSelected:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{SelectedProblem: &c.Problem}, "select a problem",
			delivery{scope: scopeRoom, evt: model.EvtProblemSelected, payload: ProblemPayload{Problem: c.Problem}})

	case UpdateLanguage:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{LanguageUsed: &c.Language}, "change the language to "+c.Language,
			delivery{scope: scopeOthers, evt: model.EvtUpdatedLanguage, payload: LanguagePayload{Language: c.Language}})

	case UpdateTestCase:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{TestCase: &c.TestCase}, "modify the test case",
			delivery{scope: scopeOthers, evt: model.EvtUpdatedTestCase, payload: TestCasePayload{TestCase: c.TestCase}})

	case Compiled:
		return r.commit(sender, sess, nil, "compile the code",
			delivery{scope: scopeOthers, evt: model.EvtPassOutput, payload: OutputPayload{
				ConnectionID: sender.ConnectionID,
				Username:     sender.Username,
				Output:       c.Output,
			}})

	case StartCall:
		if err := mentorOnly(); err != nil {
			return err
		}
		return r.commit(sender, sess, &model.SessionPatch{CallLink: &c.Link}, "start a call",
			delivery{scope: scopeRoom, evt: model.EvtReceiveCallLink, payload: CallLinkPayload{Link: c.Link}})

	case EndCall:
		if err := mentorOnly(); err != nil {
			return err
		}
		empty := ""
		return r.commit(sender, sess, &model.SessionPatch{CallLink: &empty}, "end the call",
			delivery{scope: scopeRoom, evt: model.EvtTerminateCall, payload: struct{}{}})

	case PassEditor:
		if err := mentorOnly(); err != nil {
			return err
		}
		auth := model.MentorAuthority(sess.Mentor)
		if c.Target != "" {
			target, err := r.target(sess.RoomID, c.Target)
			if err != nil {
				return err
			}
			if !sess.IsMentor(target.Username) {
				auth = model.DelegatedAuthority(target)
			}
		}
		return r.commit(sender, sess, &model.SessionPatch{Editor: &auth}, "pass the editor to "+auth.Username,
			delivery{scope: scopeRoom, evt: model.EvtEditorChanged, payload: auth})

	case EndRoom:
		if err := mentorOnly(); err != nil {
			return err
		}
		r.endRoomLocked(sess.RoomID, sender.Username, "ended", true)
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// commit applies patch (if any), fans the deliveries out and records the
// action. The room lock must be held.
func (r *Relay) commit(sender *model.Participant, sess *model.RoomSession, patch *model.SessionPatch, action string, deliveries ...delivery) error {
	roomID := sess.RoomID
	if patch != nil {
		if _, err := r.sessions.ApplyUpdate(roomID, patch); err != nil {
			return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
		}
		r.mirror.Updated(roomID, model.RecordPatch(patch))
	}

	roster := r.roster.RosterOf(roomID)
	for _, d := range deliveries {
		switch d.scope {
		case scopeRoom:
			r.toRoom(roster, d.evt, d.payload)
		case scopeOthers:
			r.toOthers(roster, sender.ConnectionID, d.evt, d.payload)
		case scopeTarget:
			r.send(d.target, d.evt, d.payload)
		case scopeMentor:
			if r.toMentor(roster, sess.Mentor.Username, d.evt, d.payload) == 0 {
				log.Debug().Str("module", "relay").Str("room", roomID).Str("event", string(d.evt)).Msg("mentor not connected, dropped")
			}
		}
	}

	r.audit.Record(roomID, sender.Username, action)
	return nil
}

// target resolves a connection id that must be in roomID
func (r *Relay) target(roomID, connectionID string) (model.RosterEntry, error) {
	if connectionID == "" {
		return model.RosterEntry{}, fmt.Errorf("%w: target is required", ErrInvalidPayload)
	}
	e, ok := inRoster(r.roster.RosterOf(roomID), connectionID)
	if !ok {
		return model.RosterEntry{}, fmt.Errorf("%w: %s", ErrTargetNotInRoom, connectionID)
	}
	return e, nil
}

// endRoomLocked destroys the room's live state and tells everyone in it.
// purge also deletes the durable record. The room lock must be held.
func (r *Relay) endRoomLocked(roomID, actor, reason string, purge bool) {
	r.sessions.Delete(roomID)
	dropped := r.roster.DropRoom(roomID)

	r.peersMu.Lock()
	for _, e := range dropped {
		if p, ok := r.peers[e.ConnectionID]; ok && p.state == StateJoined {
			p.state = StateActive
		}
	}
	r.peersMu.Unlock()

	r.toRoom(dropped, model.EvtRoomEnded, RoomEndedPayload{RoomID: roomID, Reason: reason})
	if purge {
		r.purgeRecord(roomID)
	}
	r.audit.Record(roomID, actor, "end the room")
	log.Info().Str("module", "relay").Str("room", roomID).Str("actor", actor).Str("reason", reason).Int("dropped", len(dropped)).Msg("room ended")
}

// purgeRecord deletes the durable record before the room lock is released,
// so the next init of roomID cannot restore the ended session.
func (r *Relay) purgeRecord(roomID string) {
	if r.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var err error
	if r.mirror != nil {
		err = r.mirror.Delete(ctx, roomID)
	} else {
		err = r.gateway.Delete(ctx, roomID)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "relay").Str("room", roomID).Msg("could not delete room record")
	}
}

// failRoom contains a panic to the room it happened in. The durable record
// is kept so the mentor can open the room again.
func (r *Relay) failRoom(roomID string, rec interface{}) error {
	log.Error().Str("module", "relay").Str("room", roomID).Interface("panic", rec).Str("stack", string(debug.Stack())).Msg("room handler panicked")
	r.endRoomLocked(roomID, "relay", "internal-error", false)
	return fmt.Errorf("%w: %s", ErrRoomFault, roomID)
}

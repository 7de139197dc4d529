package model

import (
	"encoding/json"
	"time"
)

// MentorIdentity is fixed for the lifetime of a live room
type MentorIdentity struct {
	ID        string `json:"id" bson:"id"`
	Username  string `json:"username" bson:"username"`
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// AuthorityKind tags who holds write access to the shared buffer
type AuthorityKind string

const (
	AuthorityNone      AuthorityKind = "none"
	AuthorityMentor    AuthorityKind = "mentor"
	AuthorityDelegated AuthorityKind = "delegated"
)

// EditorAuthority is the current holder of the shared buffer.
// ConnectionID is only set for AuthorityDelegated.
type EditorAuthority struct {
	Kind         AuthorityKind `json:"kind"`
	ConnectionID string        `json:"connectionId,omitempty"`
	Username     string        `json:"username,omitempty"`
}

func NoAuthority() EditorAuthority {
	return EditorAuthority{Kind: AuthorityNone}
}

func MentorAuthority(mentor MentorIdentity) EditorAuthority {
	return EditorAuthority{Kind: AuthorityMentor, Username: mentor.Username}
}

func DelegatedAuthority(p RosterEntry) EditorAuthority {
	return EditorAuthority{Kind: AuthorityDelegated, ConnectionID: p.ConnectionID, Username: p.Username}
}

// HeldBy reports whether the given connection currently holds the authority
func (a EditorAuthority) HeldBy(connectionID, username string) bool {
	switch a.Kind {
	case AuthorityMentor:
		return a.Username == username
	case AuthorityDelegated:
		return a.ConnectionID == connectionID
	default:
		return false
	}
}

// RoomSession is the authoritative shared state of one live room
type RoomSession struct {
	RoomID          string          `json:"roomId"`
	Code            string          `json:"code"`
	LanguageUsed    string          `json:"languageUsed"`
	TestCase        json.RawMessage `json:"testCase,omitempty"`
	CallLink        string          `json:"callLink"`
	Frozen          bool            `json:"frozen"`
	HiddenFromAll   bool            `json:"hiddenFromAll"`
	FrozenFor       map[string]bool `json:"frozenFor,omitempty"` // connectionID -> override
	HiddenFor       map[string]bool `json:"hiddenFor,omitempty"`
	SelectedProblem json.RawMessage `json:"selectedProblem,omitempty"`
	Editor          EditorAuthority `json:"editor"`
	Mentor          MentorIdentity  `json:"mentor"`
	Version         uint64          `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewRoomSession creates a fresh session owned by mentor, who also holds the editor
func NewRoomSession(roomID string, mentor MentorIdentity) *RoomSession {
	now := time.Now().UTC()
	return &RoomSession{
		RoomID:    roomID,
		Mentor:    mentor,
		Editor:    MentorAuthority(mentor),
		FrozenFor: make(map[string]bool),
		HiddenFor: make(map[string]bool),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsMentor reports whether username is this room's mentor
func (s *RoomSession) IsMentor(username string) bool {
	return username != "" && s.Mentor.Username == username
}

// IsFrozenFor is true when the room is frozen or the connection is frozen individually
func (s *RoomSession) IsFrozenFor(connectionID string) bool {
	return s.Frozen || s.FrozenFor[connectionID]
}

func (s *RoomSession) IsHiddenFor(connectionID string) bool {
	return s.HiddenFromAll || s.HiddenFor[connectionID]
}

// Clone returns a deep copy that shares no memory with s
func (s *RoomSession) Clone() *RoomSession {
	c := *s
	c.TestCase = cloneRaw(s.TestCase)
	c.SelectedProblem = cloneRaw(s.SelectedProblem)
	c.FrozenFor = make(map[string]bool, len(s.FrozenFor))
	for k, v := range s.FrozenFor {
		c.FrozenFor[k] = v
	}
	c.HiddenFor = make(map[string]bool, len(s.HiddenFor))
	for k, v := range s.HiddenFor {
		c.HiddenFor[k] = v
	}
	return &c
}

// TargetFlag sets a per-connection freeze or hide override
type TargetFlag struct {
	ConnectionID string
	Value        bool
}

// SessionPatch is a partial update; nil fields are left untouched
type SessionPatch struct {
	Code            *string
	LanguageUsed    *string
	TestCase        *json.RawMessage
	CallLink        *string
	Frozen          *bool
	HiddenFromAll   *bool
	SelectedProblem *json.RawMessage
	Editor          *EditorAuthority
	FrozenFor       *TargetFlag
	HiddenFor       *TargetFlag
	Forget          string // drop per-connection overrides of this connection
}

// Apply merges the patch into s and bumps its version
func (p *SessionPatch) Apply(s *RoomSession) {
	if p.Code != nil {
		s.Code = *p.Code
	}
	if p.LanguageUsed != nil {
		s.LanguageUsed = *p.LanguageUsed
	}
	if p.TestCase != nil {
		s.TestCase = cloneRaw(*p.TestCase)
	}
	if p.CallLink != nil {
		s.CallLink = *p.CallLink
	}
	if p.Frozen != nil {
		s.Frozen = *p.Frozen
	}
	if p.HiddenFromAll != nil {
		s.HiddenFromAll = *p.HiddenFromAll
	}
	if p.SelectedProblem != nil {
		s.SelectedProblem = cloneRaw(*p.SelectedProblem)
	}
	if p.Editor != nil {
		s.Editor = *p.Editor
	}
	if s.FrozenFor == nil {
		s.FrozenFor = make(map[string]bool)
	}
	if s.HiddenFor == nil {
		s.HiddenFor = make(map[string]bool)
	}
	if p.FrozenFor != nil {
		setFlag(s.FrozenFor, p.FrozenFor)
	}
	if p.HiddenFor != nil {
		setFlag(s.HiddenFor, p.HiddenFor)
	}
	if p.Forget != "" {
		delete(s.FrozenFor, p.Forget)
		delete(s.HiddenFor, p.Forget)
	}
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}

func setFlag(m map[string]bool, f *TargetFlag) {
	if f.Value {
		m[f.ConnectionID] = true
		return
	}
	delete(m, f.ConnectionID)
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	out := make(json.RawMessage, len(r))
	copy(out, r)
	return out
}

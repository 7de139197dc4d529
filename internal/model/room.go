package model

import (
	"encoding/json"
	"time"
)

// LiveRoomRecord is the durable mirror of a RoomSession.
// Opaque JSON values are stored as their text form.
type LiveRoomRecord struct {
	ID              string         `json:"id" bson:"_id"`
	Mentor          MentorIdentity `json:"mentor" bson:"mentor"`
	Code            string         `json:"code" bson:"code"`
	LanguageUsed    string         `json:"languageUsed" bson:"languageUsed"`
	TestCase        string         `json:"testCase" bson:"testCase"`
	CallLink        string         `json:"callLink" bson:"callLink"`
	Frozen          bool           `json:"frozen" bson:"frozen"`
	HiddenFromAll   bool           `json:"hiddenFromAll" bson:"hiddenFromAll"`
	SelectedProblem string         `json:"selectedProblem,omitempty" bson:"selectedProblem,omitempty"`
	Editor          string         `json:"editor" bson:"editor"` // username, empty when nobody holds it
	Learners        []string       `json:"learners" bson:"learners"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// LiveRoomPatch is a partial update of a LiveRoomRecord
type LiveRoomPatch struct {
	Code            *string
	LanguageUsed    *string
	TestCase        *string
	CallLink        *string
	Frozen          *bool
	HiddenFromAll   *bool
	SelectedProblem *string
	Editor          *string
	Learners        *[]string
}

// Fields returns the set fields keyed by their document names
func (p *LiveRoomPatch) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if p.Code != nil {
		f["code"] = *p.Code
	}
	if p.LanguageUsed != nil {
		f["languageUsed"] = *p.LanguageUsed
	}
	if p.TestCase != nil {
		f["testCase"] = *p.TestCase
	}
	if p.CallLink != nil {
		f["callLink"] = *p.CallLink
	}
	if p.Frozen != nil {
		f["frozen"] = *p.Frozen
	}
	if p.HiddenFromAll != nil {
		f["hiddenFromAll"] = *p.HiddenFromAll
	}
	if p.SelectedProblem != nil {
		f["selectedProblem"] = *p.SelectedProblem
	}
	if p.Editor != nil {
		f["editor"] = *p.Editor
	}
	if p.Learners != nil {
		f["learners"] = *p.Learners
	}
	return f
}

// IsEmpty reports whether the patch changes nothing
func (p *LiveRoomPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// ApplyTo merges the patch into rec
func (p *LiveRoomPatch) ApplyTo(rec *LiveRoomRecord) {
	if p.Code != nil {
		rec.Code = *p.Code
	}
	if p.LanguageUsed != nil {
		rec.LanguageUsed = *p.LanguageUsed
	}
	if p.TestCase != nil {
		rec.TestCase = *p.TestCase
	}
	if p.CallLink != nil {
		rec.CallLink = *p.CallLink
	}
	if p.Frozen != nil {
		rec.Frozen = *p.Frozen
	}
	if p.HiddenFromAll != nil {
		rec.HiddenFromAll = *p.HiddenFromAll
	}
	if p.SelectedProblem != nil {
		rec.SelectedProblem = *p.SelectedProblem
	}
	if p.Editor != nil {
		rec.Editor = *p.Editor
	}
	if p.Learners != nil {
		rec.Learners = append([]string(nil), (*p.Learners)...)
	}
	rec.UpdatedAt = time.Now().UTC()
}

// RecordPatch translates an applied session patch into its durable form
func RecordPatch(p *SessionPatch) *LiveRoomPatch {
	rp := &LiveRoomPatch{
		Code:          p.Code,
		LanguageUsed:  p.LanguageUsed,
		CallLink:      p.CallLink,
		Frozen:        p.Frozen,
		HiddenFromAll: p.HiddenFromAll,
	}
	if p.TestCase != nil {
		s := string(*p.TestCase)
		rp.TestCase = &s
	}
	if p.SelectedProblem != nil {
		s := string(*p.SelectedProblem)
		rp.SelectedProblem = &s
	}
	if p.Editor != nil {
		s := p.Editor.Username
		rp.Editor = &s
	}
	return rp
}

// NewLiveRoomRecord builds the record for a freshly initialized session
func NewLiveRoomRecord(s *RoomSession, learners []string) *LiveRoomRecord {
	return &LiveRoomRecord{
		ID:              s.RoomID,
		Mentor:          s.Mentor,
		Code:            s.Code,
		LanguageUsed:    s.LanguageUsed,
		TestCase:        string(s.TestCase),
		CallLink:        s.CallLink,
		Frozen:          s.Frozen,
		HiddenFromAll:   s.HiddenFromAll,
		SelectedProblem: string(s.SelectedProblem),
		Editor:          s.Editor.Username,
		Learners:        learners,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Session rebuilds a RoomSession from its durable record.
// Connections do not survive a restart, so authority goes back to the mentor.
func (r *LiveRoomRecord) Session() *RoomSession {
	s := NewRoomSession(r.ID, r.Mentor)
	s.Code = r.Code
	s.LanguageUsed = r.LanguageUsed
	if r.TestCase != "" && json.Valid([]byte(r.TestCase)) {
		s.TestCase = json.RawMessage(r.TestCase)
	}
	if r.SelectedProblem != "" && json.Valid([]byte(r.SelectedProblem)) {
		s.SelectedProblem = json.RawMessage(r.SelectedProblem)
	}
	s.CallLink = r.CallLink
	s.Frozen = r.Frozen
	s.HiddenFromAll = r.HiddenFromAll
	if !r.CreatedAt.IsZero() {
		s.CreatedAt = r.CreatedAt
	}
	return s
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPatchStoresRawAsText(t *testing.T) {
	tc := json.RawMessage(`{"input":"1 2"}`)
	editor := DelegatedAuthority(RosterEntry{ConnectionID: "c1", Username: "lee"})
	rp := RecordPatch(&SessionPatch{TestCase: &tc, Editor: &editor, FrozenFor: &TargetFlag{ConnectionID: "c1", Value: true}})

	assert.Equal(t, map[string]interface{}{
		"testCase": `{"input":"1 2"}`,
		"editor":   "lee",
	}, rp.Fields())
	assert.True(t, RecordPatch(&SessionPatch{Forget: "c1"}).IsEmpty())
}

func TestRecordRoundTripsToSession(t *testing.T) {
	s := NewRoomSession("R1", MentorIdentity{ID: "u1", Username: "mina"})
	s.Code = "x := 1"
	s.LanguageUsed = "go"
	s.TestCase = json.RawMessage(`[1,2]`)
	s.CallLink = "https://meet/x"
	s.Editor = DelegatedAuthority(RosterEntry{ConnectionID: "c1", Username: "lee"})

	rec := NewLiveRoomRecord(s, []string{"lee"})
	assert.Equal(t, "lee", rec.Editor)

	back := rec.Session()
	assert.Equal(t, s.Code, back.Code)
	assert.Equal(t, s.LanguageUsed, back.LanguageUsed)
	assert.JSONEq(t, `[1,2]`, string(back.TestCase))
	assert.Equal(t, s.CallLink, back.CallLink)
	assert.Equal(t, MentorAuthority(s.Mentor), back.Editor)
	assert.Equal(t, s.CreatedAt, back.CreatedAt)
}

func TestRecordSessionSkipsInvalidJSON(t *testing.T) {
	rec := &LiveRoomRecord{ID: "R1", Mentor: MentorIdentity{Username: "mina"}, TestCase: "not json"}
	assert.Nil(t, rec.Session().TestCase)
}

func TestPatchApplyTo(t *testing.T) {
	rec := &LiveRoomRecord{ID: "R1", Code: "old", Learners: []string{"a"}}
	code := "new"
	learners := []string{"b", "c"}
	(&LiveRoomPatch{Code: &code, Learners: &learners}).ApplyTo(rec)

	assert.Equal(t, "new", rec.Code)
	assert.Equal(t, []string{"b", "c"}, rec.Learners)
	learners[0] = "z"
	assert.Equal(t, "b", rec.Learners[0])
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestSessionPatchOverrides(t *testing.T) {
	s := NewRoomSession("R1", MentorIdentity{Username: "mina"})
	(&SessionPatch{FrozenFor: &TargetFlag{ConnectionID: "c1", Value: true}, HiddenFor: &TargetFlag{ConnectionID: "c1", Value: true}}).Apply(s)
	require.True(t, s.IsFrozenFor("c1"))
	require.True(t, s.IsHiddenFor("c1"))
	assert.False(t, s.IsFrozenFor("c2"))

	(&SessionPatch{Forget: "c1"}).Apply(s)
	assert.False(t, s.IsFrozenFor("c1"))
	assert.False(t, s.IsHiddenFor("c1"))
	assert.Equal(t, uint64(2), s.Version)
}

func TestEditorAuthorityHeldBy(t *testing.T) {
	m := MentorAuthority(MentorIdentity{Username: "mina"})
	assert.True(t, m.HeldBy("any", "mina"))
	assert.False(t, m.HeldBy("any", "lee"))

	d := DelegatedAuthority(RosterEntry{ConnectionID: "c1", Username: "lee"})
	assert.True(t, d.HeldBy("c1", "lee"))
	assert.False(t, d.HeldBy("c2", "lee"))
	assert.False(t, NoAuthority().HeldBy("c1", "lee"))
}

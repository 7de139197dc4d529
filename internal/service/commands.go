package service

import (
	"encoding/json"
	"fmt"
)

// CommandKind is the wire name of an inbound relay command
type CommandKind string

const (
	CmdUpdateEditor        CommandKind = "update-editor"
	CmdUpdateLearnerEditor CommandKind = "update-learner-editor"
	CmdFreezeAll           CommandKind = "freeze-all"
	CmdFreezeOne           CommandKind = "freeze-one"
	CmdHideToAll           CommandKind = "hide-to-all"
	CmdHideToOne           CommandKind = "hide-to-one"
	CmdUpdateMeetLink      CommandKind = "update-meet-link"
	CmdProblemSelected     CommandKind = "problem-selected"
	CmdUpdateLanguage      CommandKind = "update-language"
	CmdUpdateTestCase      CommandKind = "update-test-case"
	CmdCompiled            CommandKind = "compiled"
	CmdStartCall           CommandKind = "start-call"
	CmdEndCall             CommandKind = "end-call"
	CmdPassEditor          CommandKind = "pass-editor"
	CmdEndRoom             CommandKind = "end-room"
)

// Command is one of the types below; the set is closed.
type Command interface {
	Kind() CommandKind
	command()
}

// UpdateEditor replaces the shared buffer
type UpdateEditor struct {
	Code string `json:"code"`
}

// UpdateLearnerEditor is a learner's private buffer, shown to the mentor only
type UpdateLearnerEditor struct {
	Code string `json:"code"`
}

type FreezeAll struct {
	Value bool `json:"value"`
}

type FreezeOne struct {
	Value  bool   `json:"value"`
	Target string `json:"target"` // connection id
}

type HideToAll struct {
	Value bool `json:"value"`
}

type HideToOne struct {
	Value  bool   `json:"value"`
	Target string `json:"target"`
}

type UpdateMeetLink struct {
	Link string `json:"link"`
}

// ProblemSelected carries the problem as the platform serialized it
type ProblemSelected struct {
	Problem json.RawMessage `json:"problem"`
}

type UpdateLanguage struct {
	Language string `json:"language"`
}

type UpdateTestCase struct {
	TestCase json.RawMessage `json:"testCase"`
}

// Compiled relays a compile/run result to everyone else
type Compiled struct {
	Output json.RawMessage `json:"output"`
}

type StartCall struct {
	Link string `json:"link"`
}

type EndCall struct{}

// PassEditor delegates the shared buffer to Target; empty Target returns it to the mentor
type PassEditor struct {
	Target string `json:"target"`
}

// EndRoom closes the live session for everyone
type EndRoom struct{}

func (UpdateEditor) Kind() CommandKind        { return CmdUpdateEditor }
func (UpdateLearnerEditor) Kind() CommandKind { return CmdUpdateLearnerEditor }
func (FreezeAll) Kind() CommandKind           { return CmdFreezeAll }
func (FreezeOne) Kind() CommandKind           { return CmdFreezeOne }
func (HideToAll) Kind() CommandKind           { return CmdHideToAll }
func (HideToOne) Kind() CommandKind           { return CmdHideToOne }
func (UpdateMeetLink) Kind() CommandKind      { return CmdUpdateMeetLink }
func (ProblemSelected) Kind() CommandKind     { return CmdProblemSelected }
func (UpdateLanguage) Kind() CommandKind      { return CmdUpdateLanguage }
func (UpdateTestCase) Kind() CommandKind      { return CmdUpdateTestCase }
func (Compiled) Kind() CommandKind            { return CmdCompiled }
func (StartCall) Kind() CommandKind           { return CmdStartCall }
func (EndCall) Kind() CommandKind             { return CmdEndCall }
func (PassEditor) Kind() CommandKind          { return CmdPassEditor }
func (EndRoom) Kind() CommandKind             { return CmdEndRoom }

func (UpdateEditor) command()        {}
func (UpdateLearnerEditor) command() {}
func (FreezeAll) command()           {}
func (FreezeOne) command()           {}
func (HideToAll) command()           {}
func (HideToOne) command()           {}
func (UpdateMeetLink) command()      {}
func (ProblemSelected) command()     {}
func (UpdateLanguage) command()      {}
func (UpdateTestCase) command()      {}
func (Compiled) command()            {}
func (StartCall) command()           {}
func (EndCall) command()             {}
func (PassEditor) command()          {}
func (EndRoom) command()             {}

// DecodeCommand builds the typed command for kind from its JSON payload
func DecodeCommand(kind CommandKind, payload json.RawMessage) (Command, error) {
	switch kind {
	case CmdUpdateEditor:
		return decodeAs[UpdateEditor](payload)
	case CmdUpdateLearnerEditor:
		return decodeAs[UpdateLearnerEditor](payload)
	case CmdFreezeAll:
		return decodeAs[FreezeAll](payload)
	case CmdFreezeOne:
		return decodeAs[FreezeOne](payload)
	case CmdHideToAll:
		return decodeAs[HideToAll](payload)
	case CmdHideToOne:
		return decodeAs[HideToOne](payload)
	case CmdUpdateMeetLink:
		return decodeAs[UpdateMeetLink](payload)
	case CmdProblemSelected:
		return decodeAs[ProblemSelected](payload)
	case CmdUpdateLanguage:
		return decodeAs[UpdateLanguage](payload)
	case CmdUpdateTestCase:
		return decodeAs[UpdateTestCase](payload)
	case CmdCompiled:
		return decodeAs[Compiled](payload)
	case CmdStartCall:
		return decodeAs[StartCall](payload)
	case CmdEndCall:
		return EndCall{}, nil
	case CmdPassEditor:
		return decodeAs[PassEditor](payload)
	case CmdEndRoom:
		return EndRoom{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, kind)
}

func decodeAs[T Command](payload json.RawMessage) (Command, error) {
	var c T
	if len(payload) == 0 || string(payload) == "null" {
		return c, nil
	}
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return c, nil
}

package service

import (
	"encoding/json"

	"codeclive/internal/model"
)

// Outbound payloads

type JoinSuccessPayload struct {
	RoomID       string `json:"roomId"`
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	IsMentor     bool   `json:"isMentor"`
}

type RosterPayload struct {
	RoomID       string              `json:"roomId"`
	Participants []model.RosterEntry `json:"participants"`
}

type UserLeftPayload struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	Reason       string `json:"reason,omitempty"`
}

type CodePayload struct {
	Code string `json:"code"`
}

type LearnerCodePayload struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	Code         string `json:"code"`
}

type LanguagePayload struct {
	Language string `json:"language"`
}

type TestCasePayload struct {
	TestCase json.RawMessage `json:"testCase"`
}

type FlagPayload struct {
	Value bool `json:"value"`
}

type CallLinkPayload struct {
	Link string `json:"link"`
}

type ProblemPayload struct {
	Problem json.RawMessage `json:"problem"`
}

type OutputPayload struct {
	ConnectionID string          `json:"connectionId"`
	Username     string          `json:"username"`
	Output       json.RawMessage `json:"output"`
}

type RoomEndedPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// ErrorPayload is sent back to the connection whose message failed
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}

// NewErrorPayload describes err for the wire
func NewErrorPayload(command string, err error) ErrorPayload {
	return ErrorPayload{Code: ErrorCode(err), Message: err.Error(), Command: command}
}

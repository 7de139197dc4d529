package service

import (
	"errors"

	"codeclive/internal/session"
)

// Relay protocol errors. They are reported to the sending connection only.
var (
	ErrNotJoined          = errors.New("connection has not joined a room")
	ErrAlreadyJoined      = errors.New("connection already joined a room")
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotAuthorized      = errors.New("not authorized for this command")
	ErrFrozenBufferEdit   = errors.New("editor is frozen")
	ErrTargetNotInRoom    = errors.New("target is not in this room")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrDisconnected       = errors.New("connection is closed")
	ErrRoomFault          = errors.New("room failed and was closed")
	ErrGatewayUnavailable = errors.New("room records are unavailable, try again")

	ErrArchiveUnavailable = errors.New("room archive is not configured")

	ErrDuplicateConnection = session.ErrDuplicateConnection
)

// ErrorCode maps an error to the code sent on the wire
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotJoined):
		return "NotJoined"
	case errors.Is(err, ErrAlreadyJoined):
		return "AlreadyJoined"
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, session.ErrRoomNotFound), errors.Is(err, session.ErrRoomNotInitialized):
		return "RoomNotFound"
	case errors.Is(err, ErrDuplicateConnection):
		return "DuplicateConnection"
	case errors.Is(err, ErrNotAuthorized):
		return "NotAuthorized"
	case errors.Is(err, ErrFrozenBufferEdit):
		return "FrozenBufferEdit"
	case errors.Is(err, ErrTargetNotInRoom):
		return "TargetNotInRoom"
	case errors.Is(err, ErrUnknownCommand):
		return "UnknownCommand"
	case errors.Is(err, ErrInvalidPayload):
		return "InvalidPayload"
	case errors.Is(err, ErrDisconnected):
		return "Disconnected"
	case errors.Is(err, ErrRoomFault):
		return "RoomFault"
	case errors.Is(err, ErrGatewayUnavailable):
		return "GatewayUnavailable"
	default:
		return "Internal"
	}
}

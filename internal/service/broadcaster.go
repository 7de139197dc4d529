package service

import "codeclive/internal/model"

// Broadcaster delivers one event to one connection (avoids import cycle with ws)
type Broadcaster interface {
	Send(connectionID string, msgType model.EventType, payload interface{})
}

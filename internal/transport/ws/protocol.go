package ws

import (
	"encoding/json"
	"fmt"

	"codeclive/internal/service"
)

// Inbound lifecycle message types; everything else is a relay command
const (
	MsgActive     = "active"
	MsgInit       = "init"
	MsgInitServer = "init-server"
	MsgJoinRoom   = "join-room"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ActivePayload announces who is behind the connection
type ActivePayload struct {
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

// JoinPayload asks to enter an initialized room
type JoinPayload struct {
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

// ConnectedPayload is the first frame a client receives
type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username,omitempty"`
}

func decodeEnvelope(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidPayload, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", service.ErrInvalidPayload)
	}
	return &msg, nil
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidPayload, err)
	}
	return nil
}

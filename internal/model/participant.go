package model

import "time"

// Participant is one live connection inside a room
type Participant struct {
	ConnectionID string    `json:"connectionId"`
	Username     string    `json:"username"`
	RoomID       string    `json:"roomId"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// RosterEntry is what other participants see of a connection
type RosterEntry struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
}

// Entry returns the roster view of p
func (p *Participant) Entry() RosterEntry {
	return RosterEntry{ConnectionID: p.ConnectionID, Username: p.Username}
}

// RoomSummary is the operator listing view of an active room
type RoomSummary struct {
	RoomID       string         `json:"roomId"`
	Mentor       MentorIdentity `json:"mentor"`
	Participants int            `json:"participants"`
	CallActive   bool           `json:"callActive"`
	Frozen       bool           `json:"frozen"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

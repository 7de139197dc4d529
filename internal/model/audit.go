package model

import "time"

// AuditEntry is one line of a room's append-only activity log
type AuditEntry struct {
	ID      string    `json:"id" bson:"_id"`
	RoomID  string    `json:"roomId" bson:"roomId"`
	Actor   string    `json:"actor" bson:"actor"`
	Message string    `json:"message" bson:"message"`
	At      time.Time `json:"at" bson:"at"`
}

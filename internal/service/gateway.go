package service

import (
	"context"

	"github.com/rs/zerolog"

	"codeclive/internal/model"
)

// SessionGateway is the durable (or TTL-bound) owner of room records.
// Get returns nil, nil when the record does not exist.
type SessionGateway interface {
	Get(ctx context.Context, roomID string) (*model.LiveRoomRecord, error)
	Create(ctx context.Context, rec *model.LiveRoomRecord) (*model.LiveRoomRecord, error)
	Update(ctx context.Context, roomID string, patch *model.LiveRoomPatch) (*model.LiveRoomRecord, error)
	Delete(ctx context.Context, roomID string) error
}

// AuditSink is the write-only per-room activity log
type AuditSink interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
}

// LogAuditSink writes audit entries to a zerolog logger instead of a store
type LogAuditSink struct {
	logger zerolog.Logger
}

// NewLogAuditSink creates an audit sink backed by logger
func NewLogAuditSink(logger zerolog.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger.With().Str("module", "audit").Logger()}
}

func (s *LogAuditSink) Append(_ context.Context, entry *model.AuditEntry) error {
	s.logger.Info().
		Str("room", entry.RoomID).
		Str("actor", entry.Actor).
		Time("at", entry.At).
		Msg(entry.Message)
	return nil
}

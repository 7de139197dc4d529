package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"codeclive/internal/model"
)

// AuditRepo stores the per-room activity log
type AuditRepo interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	ListByRoom(ctx context.Context, roomID string, limit int64) ([]*model.AuditEntry, error)
}

type auditRepo struct {
	collection *mongo.Collection
}

// NewAuditRepo creates a new audit repository with indexes
func NewAuditRepo(db *mongo.Database) AuditRepo {
	repo := &auditRepo{
		collection: db.Collection("live_audit"),
	}
	ensureIndex(context.Background(), repo.collection, bson.D{
		{Key: "roomId", Value: 1},
		{Key: "at", Value: 1},
	}, false)
	return repo
}

func (r *auditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *auditRepo) ListByRoom(ctx context.Context, roomID string, limit int64) ([]*model.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*model.AuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

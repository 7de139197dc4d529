package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"codeclive/internal/model"
)

// LiveRoomRepo is the durable store of live room records
type LiveRoomRepo interface {
	Get(ctx context.Context, roomID string) (*model.LiveRoomRecord, error)
	Create(ctx context.Context, rec *model.LiveRoomRecord) (*model.LiveRoomRecord, error)
	Update(ctx context.Context, roomID string, patch *model.LiveRoomPatch) (*model.LiveRoomRecord, error)
	Delete(ctx context.Context, roomID string) error
	ListByMentor(ctx context.Context, username string) ([]*model.LiveRoomRecord, error)
}

// ErrRoomExists is returned by Create when the room already has a record
var ErrRoomExists = errors.New("live room record already exists")

type liveRoomRepo struct {
	collection *mongo.Collection
}

// NewLiveRoomRepo creates a new live room repository with indexes
func NewLiveRoomRepo(db *mongo.Database) LiveRoomRepo {
	repo := &liveRoomRepo{
		collection: db.Collection("liverooms"),
	}
	ensureIndex(context.Background(), repo.collection, bson.D{{Key: "mentor.username", Value: 1}}, false)
	return repo
}

func (r *liveRoomRepo) Get(ctx context.Context, roomID string) (*model.LiveRoomRecord, error) {
	var rec model.LiveRoomRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *liveRoomRepo) Create(ctx context.Context, rec *model.LiveRoomRecord) (*model.LiveRoomRecord, error) {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Learners == nil {
		rec.Learners = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrRoomExists, rec.ID)
		}
		return nil, err
	}
	return rec, nil
}

func (r *liveRoomRepo) Update(ctx context.Context, roomID string, patch *model.LiveRoomPatch) (*model.LiveRoomRecord, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range patch.Fields() {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec model.LiveRoomRecord
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": roomID}, bson.M{"$set": set}, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *liveRoomRepo) Delete(ctx context.Context, roomID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": roomID})
	return err
}

func (r *liveRoomRepo) ListByMentor(ctx context.Context, username string) ([]*model.LiveRoomRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"mentor.username": username}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []*model.LiveRoomRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

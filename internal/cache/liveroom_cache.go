package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"codeclive/internal/model"
)

// LiveRoomCache keeps live room records in Redis with a sliding TTL.
// It is an alternative to the Mongo repository for deployments that do not
// need rooms to outlive the TTL.
type LiveRoomCache interface {
	Get(ctx context.Context, roomID string) (*model.LiveRoomRecord, error)
	Create(ctx context.Context, rec *model.LiveRoomRecord) (*model.LiveRoomRecord, error)
	Update(ctx context.Context, roomID string, patch *model.LiveRoomPatch) (*model.LiveRoomRecord, error)
	Delete(ctx context.Context, roomID string) error
}

// ErrRoomExists is returned by Create when the room already has a record
var ErrRoomExists = errors.New("live room record already exists")

const maxUpdateRetries = 5

type liveRoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLiveRoomCache creates a new live room cache. ttl <= 0 defaults to 24h.
func NewLiveRoomCache(client *redis.Client, ttl time.Duration) LiveRoomCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &liveRoomCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *liveRoomCache) key(roomID string) string {
	return fmt.Sprintf("liveroom:%s", roomID)
}

func (c *liveRoomCache) Get(ctx context.Context, roomID string) (*model.LiveRoomRecord, error) {
	return c.get(ctx, c.client, roomID)
}

func (c *liveRoomCache) get(ctx context.Context, cmd redis.Cmdable, roomID string) (*model.LiveRoomRecord, error) {
	data, err := cmd.Get(ctx, c.key(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec model.LiveRoomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *liveRoomCache) Create(ctx context.Context, rec *model.LiveRoomRecord) (*model.LiveRoomRecord, error) {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Learners == nil {
		rec.Learners = []string{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	ok, err := c.client.SetNX(ctx, c.key(rec.ID), data, c.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, rec.ID)
	}
	return rec, nil
}

// Update merges patch into the stored record under WATCH, retrying when
// another writer got there first. A missing record yields nil, nil.
func (c *liveRoomCache) Update(ctx context.Context, roomID string, patch *model.LiveRoomPatch) (*model.LiveRoomRecord, error) {
	key := c.key(roomID)
	var out *model.LiveRoomRecord

	txf := func(tx *redis.Tx) error {
		rec, err := c.get(ctx, tx, roomID)
		if err != nil || rec == nil {
			out = nil
			return err
		}
		patch.ApplyTo(rec)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		if err == nil {
			out = rec
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := c.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update %s: too much contention", roomID)
}

func (c *liveRoomCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}

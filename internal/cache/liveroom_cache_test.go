package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclive/internal/model"
)

func newTestCache(t *testing.T, ttl time.Duration) (LiveRoomCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLiveRoomCache(client, ttl), mr
}

func sampleRecord(id string) *model.LiveRoomRecord {
	return &model.LiveRoomRecord{
		ID:           id,
		Mentor:       model.MentorIdentity{ID: "u1", Username: "mina"},
		Code:         "print(1)",
		LanguageUsed: "python",
		TestCase:     `{"input":"1"}`,
		Editor:       "mina",
	}
}

func TestLiveRoomCache_GetMissing(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	rec, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLiveRoomCache_CreateGet(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, err := c.Create(ctx, sampleRecord("r1"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("liveroom:r1"))
	assert.Equal(t, time.Hour, mr.TTL("liveroom:r1"))

	rec, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "mina", rec.Mentor.Username)
	assert.Equal(t, "print(1)", rec.Code)
	assert.Equal(t, []string{}, rec.Learners)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestLiveRoomCache_UpdateMergesPatch(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	_, err := c.Create(ctx, sampleRecord("r1"))
	require.NoError(t, err)

	code := "print(2)"
	frozen := true
	learners := []string{"lee", "ana"}
	rec, err := c.Update(ctx, "r1", &model.LiveRoomPatch{Code: &code, Frozen: &frozen, Learners: &learners})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "print(2)", rec.Code)
	assert.True(t, rec.Frozen)
	assert.Equal(t, "python", rec.LanguageUsed)

	got, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lee", "ana"}, got.Learners)
	assert.Equal(t, "print(2)", got.Code)
}

func TestLiveRoomCache_UpdateMissing(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	code := "x"
	rec, err := c.Update(context.Background(), "ghost", &model.LiveRoomPatch{Code: &code})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLiveRoomCache_UpdateRefreshesTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()
	_, err := c.Create(ctx, sampleRecord("r1"))
	require.NoError(t, err)

	mr.FastForward(50 * time.Minute)
	link := "https://meet.example/abc"
	_, err = c.Update(ctx, "r1", &model.LiveRoomPatch{CallLink: &link})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("liveroom:r1"))
}

func TestLiveRoomCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	_, err := c.Create(ctx, sampleRecord("r1"))
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	rec, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLiveRoomCache_Delete(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	_, err := c.Create(ctx, sampleRecord("r1"))
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "r1"))
	rec, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLiveRoomCache_CreateDoesNotOverwrite(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	_, err := c.Create(ctx, sampleRecord("r1"))
	require.NoError(t, err)

	other := sampleRecord("r1")
	other.Mentor.Username = "yuki"
	other.Code = ""
	_, err = c.Create(ctx, other)
	assert.ErrorIs(t, err, ErrRoomExists)

	rec, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "mina", rec.Mentor.Username)
	assert.Equal(t, "print(1)", rec.Code)
}

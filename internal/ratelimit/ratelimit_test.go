package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Burst(t *testing.T) {
	l := NewLimiter(1, 3)
	now := time.Now()

	assert.True(t, l.allowAt(now))
	assert.True(t, l.allowAt(now))
	assert.True(t, l.allowAt(now))
	assert.False(t, l.allowAt(now), "burst exhausted")
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(10, 1)
	now := time.Now()

	assert.True(t, l.allowAt(now))
	assert.False(t, l.allowAt(now))
	assert.True(t, l.allowAt(now.Add(150*time.Millisecond)))
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow())
	}
}

func TestClientLimiters_PerClient(t *testing.T) {
	cl := NewClientLimiters(1, 1)

	assert.True(t, cl.Get("a").Allow())
	assert.False(t, cl.Get("a").Allow())
	assert.True(t, cl.Get("b").Allow(), "clients have separate buckets")
	assert.Equal(t, 2, cl.Len())

	cl.Remove("a")
	assert.Equal(t, 1, cl.Len())
	assert.True(t, cl.Get("a").Allow(), "a fresh bucket after remove")
}

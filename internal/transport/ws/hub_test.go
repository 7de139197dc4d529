package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclive/internal/model"
)

func newConn(h *Hub, id string, size int) *Connection {
	c := &Connection{ID: id, Send: make(chan []byte, size)}
	h.Register(c)
	return c
}

func recv(t *testing.T, c *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return Message{}
	}
}

func TestHub_SendToOneConnection(t *testing.T) {
	h := NewHub()
	defer h.Stop()
	a := newConn(h, "a", 8)
	b := newConn(h, "b", 8)

	h.Send("a", model.EvtFreeze, map[string]bool{"value": true})

	msg := recv(t, a)
	assert.Equal(t, "freeze", msg.Type)
	assert.JSONEq(t, `{"value":true}`, string(msg.Payload))

	select {
	case <-b.Send:
		t.Fatal("b should not receive a's frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PreservesOrder(t *testing.T) {
	h := NewHub()
	defer h.Stop()
	a := newConn(h, "a", 64)

	for i := 0; i < 20; i++ {
		h.Send("a", model.EvtUpdatedEditor, map[string]int{"n": i})
	}
	for i := 0; i < 20; i++ {
		var p map[string]int
		require.NoError(t, json.Unmarshal(recv(t, a).Payload, &p))
		assert.Equal(t, i, p["n"])
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := NewHub()
	defer h.Stop()
	a := newConn(h, "a", 8)
	require.Equal(t, 1, h.Count())

	h.Unregister(a)
	_, ok := <-a.Send
	assert.False(t, ok)
	assert.Equal(t, 0, h.Count())

	// unknown and repeated unregisters are ignored
	h.Unregister(a)
	h.Send("a", model.EvtFreeze, nil)
}

func TestHub_SlowConnectionIsClosed(t *testing.T) {
	h := NewHub()
	defer h.Stop()
	a := newConn(h, "a", 1)

	h.Send("a", model.EvtFreeze, nil)
	h.Send("a", model.EvtFreeze, nil)

	assert.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 10*time.Millisecond)
	<-a.Send
	_, ok := <-a.Send
	assert.False(t, ok)
}

func TestHub_StopClosesAll(t *testing.T) {
	h := NewHub()
	a := newConn(h, "a", 8)
	b := newConn(h, "b", 8)

	h.Stop()
	_, okA := <-a.Send
	_, okB := <-b.Send
	assert.False(t, okA)
	assert.False(t, okB)

	// calls after stop do not block
	h.Send("a", model.EvtFreeze, nil)
	h.Register(&Connection{ID: "c", Send: make(chan []byte, 1)})
	h.Stop()
}

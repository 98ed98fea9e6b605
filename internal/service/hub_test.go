package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/gather/internal/protocol"
)

func TestHub_SendQueuesEncodedFrame(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	sub := hub.Subscribe("c1")
	assert.Equal(t, 1, hub.Count())

	hub.Send("c1", protocol.LogoutResponse{})
	hub.Send("unknown", protocol.LogoutResponse{})

	require.Len(t, sub.Frames, 1)
	frame := <-sub.Frames
	assert.JSONEq(t, `{"type":"LogoutResponse","data":{}}`, string(frame))
}

func TestHub_FullQueueDrops(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	sub := hub.Subscribe("c1")
	for i := 0; i < outboundBuffer+5; i++ {
		hub.Send("c1", protocol.LogoutResponse{})
	}
	assert.Len(t, sub.Frames, outboundBuffer)
}

func TestHub_Unsubscribe(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	sub := hub.Subscribe("c1")
	hub.Unsubscribe("c1")
	hub.Unsubscribe("c1")

	select {
	case <-sub.Done:
	default:
		t.Fatal("done channel not closed")
	}
	assert.Zero(t, hub.Count())

	hub.Send("c1", protocol.LogoutResponse{})
	assert.Empty(t, sub.Frames)
}

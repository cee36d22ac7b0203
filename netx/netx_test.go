package netx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishDeliversToSubscribers(t *testing.T) {
	n := NewInMemoryNetwork()
	sub, err := n.Subscribe("aw.w1.action")
	require.NoError(t, err)

	require.NoError(t, n.Publish("aw.w1.action", []byte("payload")))

	select {
	case msg := <-sub.Messages:
		require.Equal(t, []byte("payload"), msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryRequestInvokesHandler(t *testing.T) {
	n := NewInMemoryNetwork()
	require.NoError(t, n.RegisterHandler("/aw/rr/1.0.0/get_world_head", func(payload []byte) ([]byte, error) {
		return append(append([]byte{}, payload...), []byte("-ok")...), nil
	}))

	resp, err := n.Request("/aw/rr/1.0.0/get_world_head", []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("ping-ok"), resp)
}

func TestRequestWithoutHandlerFails(t *testing.T) {
	n := NewInMemoryNetwork()
	_, err := n.Request("/aw/rr/1.0.0/missing", nil)
	require.Error(t, err)
}

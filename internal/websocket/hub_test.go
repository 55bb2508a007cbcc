package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond)
}

func TestHubDeliversPerUser(t *testing.T) {
	hub := runHub(t)

	// Two sessions for one user, one session for another.
	tab1 := NewClient(nil, "user-a")
	tab2 := NewClient(nil, "user-a")
	other := NewClient(nil, "user-b")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	assert.Equal(t, 2, hub.UserSessionCount("user-a"))
	assert.Equal(t, 1, hub.UserSessionCount("user-b"))

	hub.BroadcastToUser("user-a", []byte("hello"))

	for _, c := range []*Client{tab1, tab2} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "hello", string(msg))
		case <-time.After(time.Second):
			t.Fatal("session did not receive broadcast")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("other user received a foreign broadcast")
	default:
	}
}

func TestHubUnregisterCleansUp(t *testing.T) {
	hub := runHub(t)

	c := NewClient(nil, "user-a")
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(c)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	assert.Zero(t, hub.UserSessionCount("user-a"))

	// The send channel is closed on removal.
	_, open := <-c.Send
	assert.False(t, open)

	// A second unregister of the same client is a no-op.
	hub.Unregister(c)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Broadcasting to an empty channel set does nothing.
	hub.BroadcastToUser("user-a", []byte("nobody home"))
}

func TestHubSlowConsumerDoesNotBlock(t *testing.T) {
	hub := runHub(t)

	c := NewClient(nil, "user-a")
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	// Fill the buffer past capacity; extra messages are dropped, the
	// broadcast never stalls.
	for i := 0; i < cap(c.Send)+10; i++ {
		hub.BroadcastToUser("user-a", []byte("burst"))
	}
	assert.Equal(t, cap(c.Send), len(c.Send))
}

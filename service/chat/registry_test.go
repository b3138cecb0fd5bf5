package chat

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(connID, userID string) *Client {
	c := NewClient(connID, nil, 16)
	c.UserID = userID
	return c
}

func TestRegistryPresenceTransitions(t *testing.T) {
	reg := NewRegistry()
	var events []string
	reg.OnPresenceChange(func(id string, online bool) {
		events = append(events, fmt.Sprintf("%s:%v", id, online))
	})

	c1 := newTestClient("c1", "alice")
	c2 := newTestClient("c2", "alice")

	reg.Register(c1)
	require.Equal(t, []string{"alice:true"}, events)
	assert.True(t, reg.IsOnline("alice"))

	// second device: no transition
	reg.Register(c2)
	require.Len(t, events, 1)
	assert.Len(t, reg.ConnectionsFor("alice"), 2)

	// removing one of two keeps the identity online
	reg.Unregister(c1)
	require.Len(t, events, 1)
	assert.True(t, reg.IsOnline("alice"))

	reg.Unregister(c2)
	require.Equal(t, []string{"alice:true", "alice:false"}, events)
	assert.False(t, reg.IsOnline("alice"))
	assert.Nil(t, reg.ConnectionsFor("alice"))
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	var offline int
	reg.OnPresenceChange(func(_ string, online bool) {
		if !online {
			offline++
		}
	})

	c := newTestClient("c1", "bob")
	reg.Register(c)
	reg.Unregister(c)
	reg.Unregister(c)
	reg.Unregister(c)
	assert.Equal(t, 1, offline)
}

func TestRegistryIgnoresUnauthenticated(t *testing.T) {
	reg := NewRegistry()
	c := NewClient("c1", nil, 16)
	reg.Register(c)
	assert.Empty(t, reg.OnlineIdentities())
}

func TestRegistryOnlineIdentities(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newTestClient("c1", "alice"))
	reg.Register(newTestClient("c2", "bob"))
	reg.Register(newTestClient("c3", "bob"))

	ids := reg.OnlineIdentities()
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

func TestRegistryHookOrderPerIdentity(t *testing.T) {
	reg := NewRegistry()
	var mu sync.Mutex
	var seq []bool
	reg.OnPresenceChange(func(_ string, online bool) {
		mu.Lock()
		seq = append(seq, online)
		mu.Unlock()
	})

	// many goroutines churning one identity: transitions must be
	// observed strictly alternating, online first, never inverted
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newTestClient(fmt.Sprintf("c%d", i), "alice")
			reg.Register(c)
			reg.Unregister(c)
		}(i)
	}
	wg.Wait()

	require.True(t, len(seq) >= 2)
	require.True(t, len(seq)%2 == 0)
	for i, online := range seq {
		assert.Equal(t, i%2 == 0, online, "transition %d inverted", i)
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	reg := NewRegistry()
	var online, offline int64
	reg.OnPresenceChange(func(_ string, isOn bool) {
		if isOn {
			atomic.AddInt64(&online, 1)
		} else {
			atomic.AddInt64(&offline, 1)
		}
	})

	const users = 50
	const connsPerUser = 20
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for k := 0; k < connsPerUser; k++ {
			wg.Add(1)
			go func(u, k int) {
				defer wg.Done()
				c := newTestClient(fmt.Sprintf("conn-%d-%d", u, k), fmt.Sprintf("user-%d", u))
				reg.Register(c)
				reg.Unregister(c)
			}(u, k)
		}
	}
	wg.Wait()

	assert.Empty(t, reg.OnlineIdentities())
	assert.Equal(t, atomic.LoadInt64(&online), atomic.LoadInt64(&offline))
}

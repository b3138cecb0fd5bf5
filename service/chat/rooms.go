package chat

import "sync"

// Rooms is local subscription bookkeeping for joinChannel/leaveChannel.
// It never alters persisted membership: the router always resolves
// members from the store on send. The table exists so teardown can
// forget a closing connection's subscriptions in one call.
type Rooms struct {
	mu        sync.RWMutex
	byChannel map[string]map[string]struct{} // channelID -> connID set
	byConn    map[string]map[string]struct{} // connID -> channelID set
}

func NewRooms() *Rooms {
	return &Rooms{
		byChannel: make(map[string]map[string]struct{}),
		byConn:    make(map[string]map[string]struct{}),
	}
}

func (r *Rooms) Join(channelID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byChannel[channelID] == nil {
		r.byChannel[channelID] = make(map[string]struct{})
	}
	r.byChannel[channelID][connID] = struct{}{}
	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][channelID] = struct{}{}
}

func (r *Rooms) Leave(channelID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(channelID, connID)
}

// LeaveAll forgets every subscription of a closing connection.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for channelID := range r.byConn[connID] {
		r.leaveLocked(channelID, connID)
	}
}

func (r *Rooms) leaveLocked(channelID, connID string) {
	if m := r.byChannel[channelID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byChannel, channelID)
		}
	}
	if m := r.byConn[connID]; m != nil {
		delete(m, channelID)
		if len(m) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// subscribers returns the conn ids locally joined to the channel.
func (r *Rooms) subscribers(channelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byChannel[channelID]
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

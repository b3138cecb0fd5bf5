package chat

import (
	"hash/fnv"
	"sync"
)

// Registry maps identities to their live connections. Sharded so that
// register/unregister/lookup for unrelated identities never contend on
// the same lock. The registry holds non-owning references: connection
// lifecycle belongs to the gateway, the registry only indexes.

const registryShards = 32

// PresenceHook observes an identity going online (first connection) or
// offline (last connection gone). Invoked inside the transition's
// critical section so hooks see an identity's transitions in order;
// a hook must not call back into the Registry.
type PresenceHook func(identity string, online bool)

type registryShard struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // identity -> connID -> conn
}

type Registry struct {
	shards [registryShards]registryShard
	hooks  []PresenceHook
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].byUser = make(map[string]map[string]*Client)
	}
	return r
}

// OnPresenceChange adds a transition hook. Wiring-time only, not safe
// to call once traffic is flowing.
func (r *Registry) OnPresenceChange(h PresenceHook) {
	r.hooks = append(r.hooks, h)
}

func (r *Registry) shardFor(identity string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return &r.shards[h.Sum32()%registryShards]
}

// Register adds the connection to its identity's set. The first
// connection for an identity fires the came-online signal.
func (r *Registry) Register(c *Client) {
	if c == nil || c.UserID == "" {
		return
	}
	s := r.shardFor(c.UserID)
	s.mu.Lock()
	m := s.byUser[c.UserID]
	wasOffline := m == nil
	if m == nil {
		m = make(map[string]*Client)
		s.byUser[c.UserID] = m
	}
	m[c.ConnID] = c
	if wasOffline {
		r.emit(c.UserID, true)
	}
	s.mu.Unlock()
}

// Unregister removes the connection; removing the last one deletes the
// entry in the same critical section, so no reader ever observes an
// identity with zero connections. Idempotent.
func (r *Registry) Unregister(c *Client) {
	if c == nil || c.UserID == "" {
		return
	}
	s := r.shardFor(c.UserID)
	s.mu.Lock()
	m := s.byUser[c.UserID]
	if m == nil {
		s.mu.Unlock()
		return
	}
	if _, ok := m[c.ConnID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(m, c.ConnID)
	if len(m) == 0 {
		delete(s.byUser, c.UserID)
		r.emit(c.UserID, false)
	}
	s.mu.Unlock()
}

// ConnectionsFor returns a snapshot; connections may close concurrently
// after the call returns.
func (r *Registry) ConnectionsFor(identity string) []*Client {
	s := r.shardFor(identity)
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.byUser[identity]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsOnline(identity string) bool {
	s := r.shardFor(identity)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[identity]) > 0
}

// OnlineIdentities lists identities with at least one live connection
// on this node. Used by the presence TTL refresh loop.
func (r *Registry) OnlineIdentities() []string {
	var out []string
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for id := range s.byUser {
			out = append(out, id)
		}
		s.mu.RUnlock()
	}
	return out
}

func (r *Registry) emit(identity string, online bool) {
	for _, h := range r.hooks {
		h(identity, online)
	}
}

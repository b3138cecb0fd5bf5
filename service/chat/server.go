package chat

import (
	"context"
	"sync"
	"time"

	"syncchat/config"
	"syncchat/logger"
	"syncchat/metrics"
	"syncchat/tools/safe"
)

// Server is the session gateway: it owns every live connection from
// accept to teardown, and wires the registry, router and dispatcher
// together. Explicitly constructed and torn down; nothing here is a
// package-level singleton, so tests run gateways in isolation.

type ServerDeps struct {
	Registry *Registry
	Router   *Router
	Auth     AuthGateway
	Presence PresenceStore // optional
}

type Server struct {
	gatewayID string
	cfg       config.WebSocketConfig

	reg      *Registry
	router   *Router
	auth     AuthGateway
	presence PresenceStore
	disp     *Dispatcher
	rooms    *Rooms

	mu      sync.Mutex
	clients map[string]*Client // every live conn, authenticated or not

	presenceCh chan presenceEvent
	closed     chan struct{}
}

type presenceEvent struct {
	identity string
	online   bool
}

func NewServer(gatewayID string, cfg config.WebSocketConfig, deps ServerDeps) *Server {
	s := &Server{
		gatewayID:  gatewayID,
		cfg:        cfg,
		reg:        deps.Registry,
		router:     deps.Router,
		auth:       deps.Auth,
		presence:   deps.Presence,
		disp:       NewDispatcher(),
		rooms:      NewRooms(),
		clients:    make(map[string]*Client),
		presenceCh: make(chan presenceEvent, 1024),
		closed:     make(chan struct{}),
	}
	if s.presence != nil {
		safe.Go("presence-mirror", s.presenceLoop)
	}

	s.reg.OnPresenceChange(func(identity string, online bool) {
		if online {
			metrics.OnlineIdentities.Inc()
		} else {
			metrics.OnlineIdentities.Dec()
		}
		s.mirrorPresence(identity, online)
		s.broadcastLocal(BuildPresenceChanged(identity, online), identity)
	})
	return s
}

func (s *Server) GatewayID() string                { return s.gatewayID }
func (s *Server) Disp() *Dispatcher                { return s.disp }
func (s *Server) Registry() *Registry              { return s.reg }
func (s *Server) Router() *Router                  { return s.router }
func (s *Server) Rooms() *Rooms                    { return s.rooms }
func (s *Server) Auth() AuthGateway                { return s.auth }
func (s *Server) WSConfig() config.WebSocketConfig { return s.cfg }

func (s *Server) track(c *Client) {
	s.mu.Lock()
	s.clients[c.ConnID] = c
	s.mu.Unlock()
	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()
}

// BindIdentity promotes an authenticated connection into the registry.
// The identity is written under the server lock so concurrent local
// broadcasts observe it safely.
func (s *Server) BindIdentity(c *Client, identity string) {
	s.mu.Lock()
	c.UserID = identity
	s.mu.Unlock()
	s.reg.Register(c)

	// The connection may have closed while auth was in flight. Its
	// once-only teardown saw no identity and unregistered nothing, so a
	// register landing after that close must be undone here or the
	// entry outlives its last connection.
	select {
	case <-c.Done():
		s.reg.Unregister(c)
	default:
	}
}

// teardown runs exactly once per connection via the client close hook,
// no matter which signal noticed the close first.
func (s *Server) teardown(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.ConnID)
	s.mu.Unlock()
	metrics.ActiveConnections.Dec()

	s.rooms.LeaveAll(c.ConnID)
	s.reg.Unregister(c)
}

// mirrorPresence hands the transition to the mirror worker off the
// caller's goroutine; registry callers never wait on redis. A single
// worker applies events in hook order, so the cross-node store never
// sees an identity's online/offline inverted. Overflow drops the event;
// the TTL refresh loop reconverges the mirror.
func (s *Server) mirrorPresence(identity string, online bool) {
	if s.presence == nil {
		return
	}
	select {
	case s.presenceCh <- presenceEvent{identity: identity, online: online}:
	default:
		logger.Warnf("[gateway] presence mirror queue full, dropped user=%s online=%v", identity, online)
	}
}

func (s *Server) presenceLoop() {
	for {
		select {
		case <-s.closed:
			return
		case ev := <-s.presenceCh:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			var err error
			if ev.online {
				err = s.presence.Online(ctx, ev.identity)
			} else {
				err = s.presence.Offline(ctx, ev.identity)
			}
			cancel()
			if err != nil {
				logger.Warnf("[gateway] presence mirror user=%s online=%v: %v", ev.identity, ev.online, err)
			}
		}
	}
}

// broadcastLocal pushes a frame to every authenticated local connection
// except those of skipUser. Best-effort.
func (s *Server) broadcastLocal(payload []byte, skipUser string) {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		if c.UserID != "" && c.UserID != skipUser {
			conns = append(conns, c)
		}
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Enqueue(payload)
	}
}

// HandleRelayPayload consumes a delivery envelope relayed from another
// gateway and fans it out to the target's local connections. Runs on
// the relay transport's goroutine; enqueue never blocks.
func (s *Server) HandleRelayPayload(raw []byte) {
	env, err := DecodeRelayEnvelope(raw)
	if err != nil {
		logger.Warnf("[gateway] bad relay envelope: %v", err)
		return
	}
	for _, c := range s.reg.ConnectionsFor(env.TargetID) {
		if err := c.Enqueue(env.Payload); err != nil {
			metrics.SlowConsumerDrops.Inc()
			s.reg.Unregister(c)
			c.Close()
		}
	}
}

// StartPresenceRefresh renews the TTL of this node's online identities
// until ctx is cancelled.
func (s *Server) StartPresenceRefresh(ctx context.Context) {
	if s.presence == nil {
		return
	}
	p, ok := s.presence.(interface {
		Refresh(ctx context.Context, users []string)
	})
	if !ok {
		return
	}
	safe.Go("presence-refresh", func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closed:
				return
			case <-ticker.C:
				rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				p.Refresh(rctx, s.reg.OnlineIdentities())
				cancel()
			}
		}
	})
}

// Shutdown closes every connection deterministically. Client close
// hooks unregister each one, so the registry drains to empty.
func (s *Server) Shutdown(ctx context.Context) {
	close(s.closed)
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	deadline := time.NewTimer(5 * time.Second)
	defer deadline.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		n := len(s.clients)
		s.mu.Unlock()
		if n == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			logger.Warnf("[gateway] shutdown timed out with %d clients", n)
			return
		case <-ticker.C:
		}
	}
}

package chat

import (
	"context"
	"encoding/json"

	"syncchat/logger"
	"syncchat/metrics"
	"syncchat/module/chat/model"
	"syncchat/tools/errs"
)

// Router resolves an outbound message to its target connections,
// persists it, then fans out. Persist-before-fanout is the central
// invariant: no connection ever sees a frame whose message is not
// durably stored.
//
// FIFO per (sender, target) holds because Route is called synchronously
// from the sender's read goroutine and every target connection has a
// single FIFO send queue. There is deliberately no fan-out worker pool:
// workers pulling jobs concurrently would reorder messages of the same
// pair.

type RouterDeps struct {
	Registry *Registry
	Store    PersistenceGateway
	Resolver MembershipResolver
	Presence PresenceStore  // optional
	Relay    RelayTransport // optional, requires Presence
	Events   EventSink      // optional
}

type Router struct {
	reg        *Registry
	store      PersistenceGateway
	resolver   MembershipResolver
	presence   PresenceStore
	relay      RelayTransport
	events     EventSink
	gatewayID  string
	maxPayload int
}

func NewRouter(gatewayID string, maxPayload int, deps RouterDeps) *Router {
	return &Router{
		reg:        deps.Registry,
		store:      deps.Store,
		resolver:   deps.Resolver,
		presence:   deps.Presence,
		relay:      deps.Relay,
		events:     deps.Events,
		gatewayID:  gatewayID,
		maxPayload: maxPayload,
	}
}

// Route validates, resolves targets, persists, and fans out. Returns
// the persisted message on success. Failures before fan-out are the
// only failures: a dead target connection is pruned, never escalated.
func (rt *Router) Route(ctx context.Context, req *SendRequest) (*model.Message, error) {
	if len(req.Content)+len(req.AttachmentURL) > rt.maxPayload {
		metrics.RouteFailures.WithLabelValues("payload_too_large").Inc()
		return nil, errs.ErrPayloadTooLarge
	}
	if req.Content == "" && req.AttachmentURL == "" {
		metrics.RouteFailures.WithLabelValues("empty").Inc()
		return nil, errs.ErrMalformedFrame.WithDetail("empty payload")
	}

	targets, err := rt.resolveTargets(ctx, req)
	if err != nil {
		return nil, err
	}

	msg, err := rt.store.Persist(ctx, &model.Message{
		ClientMsgID:    req.ClientMsgID,
		ConversationID: model.ConversationID(req.SenderID, req.RecipientKind, req.RecipientID),
		SenderID:       req.SenderID,
		RecipientKind:  req.RecipientKind,
		RecipientID:    req.RecipientID,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
	})
	if err != nil {
		metrics.RouteFailures.WithLabelValues("persistence").Inc()
		return nil, errs.ErrPersistenceFailure.WithDetail(err.Error())
	}
	metrics.MessagesRouted.WithLabelValues(req.RecipientKind).Inc()

	rt.fanout(ctx, targets, msg)
	rt.emitPersisted(msg)
	return msg, nil
}

func (rt *Router) resolveTargets(ctx context.Context, req *SendRequest) ([]string, error) {
	switch req.RecipientKind {
	case model.KindDirect:
		return []string{req.RecipientID}, nil
	case model.KindChannel:
		// membership resolved fresh on every send; never cached here
		members, err := rt.resolver.MembersOf(ctx, req.RecipientID)
		if err != nil {
			if errs.ErrChannelNotFound.Is(err) {
				metrics.RouteFailures.WithLabelValues("channel_not_found").Inc()
				return nil, err
			}
			// resolver outage degrades to a per-send routing failure
			metrics.RouteFailures.WithLabelValues("resolver").Inc()
			return nil, errs.ErrPersistenceFailure.WithDetail(err.Error())
		}
		return members, nil
	default:
		metrics.RouteFailures.WithLabelValues("bad_kind").Inc()
		return nil, errs.ErrMalformedFrame.WrapMsg("unknown recipient kind %q", req.RecipientKind)
	}
}

// fanout pushes the persisted message to every live connection of every
// target identity. Best-effort and independent per connection: one dead
// or slow connection is pruned and the rest still receive. A target with
// no live connections anywhere simply gets nothing now; the message is
// already persisted and retrievable through history.
func (rt *Router) fanout(ctx context.Context, targets []string, msg *model.Message) {
	payload := BuildMessageReceived(msg)
	for _, identity := range targets {
		rt.deliverLocal(identity, payload)
		if rt.relay != nil && rt.presence != nil {
			rt.deliverRemote(ctx, identity, payload)
		}
	}
}

// deliverLocal enqueues to the identity's local connections. Returns
// whether at least one local connection took the frame.
func (rt *Router) deliverLocal(identity string, payload []byte) bool {
	conns := rt.reg.ConnectionsFor(identity)
	delivered := false
	for _, c := range conns {
		if err := c.Enqueue(payload); err != nil {
			// push failure is an implicit disconnect for that connection
			metrics.SlowConsumerDrops.Inc()
			logger.Warnf("[router] dropping dead conn=%s user=%s: %v", c.ConnID, c.UserID, err)
			rt.reg.Unregister(c)
			c.Close()
			continue
		}
		metrics.DeliveriesLocal.Inc()
		delivered = true
	}
	return delivered
}

// deliverRemote forwards the frame to other gateways that presence says
// hold connections for the identity. Fire-and-forget; relay errors are
// logged, never surfaced to the sender.
func (rt *Router) deliverRemote(ctx context.Context, identity string, payload []byte) {
	gateways, err := rt.presence.Lookup(ctx, identity)
	if err != nil {
		logger.Warnf("[router] presence lookup failed user=%s: %v", identity, err)
		return
	}
	env := EncodeRelayEnvelope(identity, payload)
	for _, gw := range gateways {
		if gw == rt.gatewayID {
			continue
		}
		if err := rt.relay.Publish(gw, env); err != nil {
			logger.Warnf("[router] relay to %s failed user=%s: %v", gw, identity, err)
			continue
		}
		metrics.DeliveriesRelayed.Inc()
	}
}

func (rt *Router) emitPersisted(msg *model.Message) {
	if rt.events == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := rt.events.Publish(msg.ConversationID, b); err != nil {
		logger.Warnf("[router] event publish failed conv=%s: %v", msg.ConversationID, err)
	}
}

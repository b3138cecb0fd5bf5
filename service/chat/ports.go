package chat

import (
	"context"

	"syncchat/module/chat/model"
)

// External collaborators the routing core depends on. All of them are
// interface abstractions so the router and gateway can be tested with
// in-memory fakes.

// PersistenceGateway durably stores a message draft, assigning the
// server message id and timestamp. Failure maps to ErrPersistenceFailure
// at the routing layer.
type PersistenceGateway interface {
	Persist(ctx context.Context, draft *model.Message) (*model.Message, error)
}

// MembershipResolver answers the current member set of a channel.
// Returns errs.ErrChannelNotFound when the channel does not exist.
type MembershipResolver interface {
	MembersOf(ctx context.Context, channelID string) ([]string, error)
}

// AuthGateway turns a credential into a verified identity.
// Returns errs.ErrUnauthenticated on any verification failure.
type AuthGateway interface {
	Verify(ctx context.Context, token string) (string, error)
}

// PresenceStore mirrors presence across gateway nodes. Optional; a
// single-node deployment runs without one.
type PresenceStore interface {
	Online(ctx context.Context, user string) error
	Offline(ctx context.Context, user string) error
	Lookup(ctx context.Context, user string) ([]string, error)
}

// RelayTransport carries delivery frames to another gateway node.
type RelayTransport interface {
	Publish(gatewayID string, payload []byte) error
}

// EventSink receives one event per persisted message, keyed by
// conversation id.
type EventSink interface {
	Publish(key string, value []byte) error
}

// SendRequest is an inbound send after payload decoding, before routing.
type SendRequest struct {
	SenderID      string
	RecipientKind string // model.KindDirect | model.KindChannel
	RecipientID   string
	Content       string
	AttachmentURL string
	ClientMsgID   string // client idempotency token, passed through
}

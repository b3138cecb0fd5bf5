package natsx

import (
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"syncchat/config"
	"syncchat/logger"
)

// Relay carries delivery frames between gateway nodes. Every gateway
// subscribes to its own subject; the router publishes to the subject of
// whichever gateway redis presence says holds the target user.

const subjectPrefix = "im.deliver."

func SubjectFor(gatewayID string) string { return subjectPrefix + gatewayID }

type Relay struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

func NewRelay(cfg config.NatsConfig) (*Relay, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("[relay] nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("[relay] nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &Relay{nc: nc}, nil
}

// Publish sends a delivery frame to another gateway, fire-and-forget.
func (r *Relay) Publish(gatewayID string, payload []byte) error {
	return errors.Wrap(r.nc.Publish(SubjectFor(gatewayID), payload), "relay publish")
}

// Subscribe binds this node's inbound subject. handler runs on the NATS
// delivery goroutine and must not block.
func (r *Relay) Subscribe(gatewayID string, handler func(payload []byte)) error {
	sub, err := r.nc.Subscribe(SubjectFor(gatewayID), func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return errors.Wrap(err, "relay subscribe")
	}
	r.sub = sub
	return nil
}

func (r *Relay) Close() {
	if r.sub != nil {
		_ = r.sub.Drain()
	}
	if r.nc != nil {
		_ = r.nc.Drain()
	}
}

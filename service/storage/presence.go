package storage

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/pkg/errors"

	"syncchat/service/storage/redis"
)

// Cross-node presence mirror. Each user maps to a redis hash
// im:presence:<user> of gatewayID -> live connection count, so any node
// can answer "is this user online, and on which gateways". The hash TTL
// is refreshed on every transition and by the heartbeat loop; a crashed
// gateway's entries age out instead of lingering.

const presenceTTL = 5 * time.Minute

func presenceKey(user string) string { return "im:presence:" + user }

// Decrement the gateway's counter, dropping the field at zero and the
// key when no gateway holds a connection. Atomic so concurrent
// disconnects across nodes cannot resurrect a dead entry.
var luaOffline = goredis.NewScript(`
local key = KEYS[1]
local gw  = ARGV[1]
local n = redis.call("HINCRBY", key, gw, -1)
if n <= 0 then
  redis.call("HDEL", key, gw)
end
if redis.call("HLEN", key) == 0 then
  redis.call("DEL", key)
  return 0
end
return 1
`)

type PresenceManager struct {
	gatewayID string
}

func NewPresenceManager(gatewayID string) *PresenceManager {
	return &PresenceManager{gatewayID: gatewayID}
}

// Online records one more live connection for user on this gateway.
func (p *PresenceManager) Online(ctx context.Context, user string) error {
	rdb := redis.Client()
	pipe := rdb.TxPipeline()
	pipe.HIncrBy(ctx, presenceKey(user), p.gatewayID, 1)
	pipe.Expire(ctx, presenceKey(user), presenceTTL)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "presence online")
}

// Offline records one connection gone; idempotence is handled by the
// floor-at-zero script.
func (p *PresenceManager) Offline(ctx context.Context, user string) error {
	err := luaOffline.Run(ctx, redis.Client(), []string{presenceKey(user)}, p.gatewayID).Err()
	return errors.Wrap(err, "presence offline")
}

// Lookup returns the gateway ids currently holding connections for user.
func (p *PresenceManager) Lookup(ctx context.Context, user string) ([]string, error) {
	m, err := redis.Client().HGetAll(ctx, presenceKey(user)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "presence lookup")
	}
	out := make([]string, 0, len(m))
	for gw := range m {
		out = append(out, gw)
	}
	return out, nil
}

// Refresh renews the TTL for every given user; called periodically by
// the gateway for its locally online identities.
func (p *PresenceManager) Refresh(ctx context.Context, users []string) {
	if len(users) == 0 {
		return
	}
	rdb := redis.Client()
	pipe := rdb.Pipeline()
	for _, u := range users {
		pipe.Expire(ctx, presenceKey(u), presenceTTL)
	}
	_, _ = pipe.Exec(ctx)
}

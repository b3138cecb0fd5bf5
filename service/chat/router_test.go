package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncchat/module/chat/model"
	"syncchat/tools/errs"
)

type fakeStore struct {
	mu      sync.Mutex
	calls   int
	failErr error
	seq     int
}

func (f *fakeStore) Persist(_ context.Context, draft *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.seq++
	msg := *draft
	msg.ServerMsgID = fmt.Sprintf("srv-%d", f.seq)
	msg.SendTime = int64(f.seq)
	return &msg, nil
}

type fakeResolver struct {
	members map[string][]string
	err     error
}

func (f *fakeResolver) MembersOf(_ context.Context, channelID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.members[channelID]
	if !ok {
		return nil, errs.ErrChannelNotFound
	}
	return m, nil
}

type fakeSink struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeSink) Publish(key string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

type fakePresence struct {
	gateways map[string][]string
}

func (f *fakePresence) Online(context.Context, string) error  { return nil }
func (f *fakePresence) Offline(context.Context, string) error { return nil }
func (f *fakePresence) Lookup(_ context.Context, user string) ([]string, error) {
	return f.gateways[user], nil
}

type fakeRelay struct {
	mu   sync.Mutex
	sent map[string][][]byte
}

func (f *fakeRelay) Publish(gatewayID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][][]byte)
	}
	f.sent[gatewayID] = append(f.sent[gatewayID], payload)
	return nil
}

func drainFrames(t *testing.T, c *Client) []*Frame {
	t.Helper()
	var out []*Frame
	for {
		select {
		case raw := <-c.send:
			f, err := ParseFrame(raw)
			require.NoError(t, err)
			out = append(out, f)
		default:
			return out
		}
	}
}

func directReq(from, to, content string) *SendRequest {
	return &SendRequest{
		SenderID:      from,
		RecipientKind: model.KindDirect,
		RecipientID:   to,
		Content:       content,
	}
}

func TestRouteDirectDeliversToEveryDevice(t *testing.T) {
	reg := NewRegistry()
	sender := newTestClient("a1", "alice")
	dev1 := newTestClient("b1", "bob")
	dev2 := newTestClient("b2", "bob")
	reg.Register(sender)
	reg.Register(dev1)
	reg.Register(dev2)

	store := &fakeStore{}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	msg, err := rt.Route(context.Background(), directReq("alice", "bob", "hi"))
	require.NoError(t, err)
	require.NotEmpty(t, msg.ServerMsgID)

	f1 := drainFrames(t, dev1)
	f2 := drainFrames(t, dev2)
	require.Len(t, f1, 1)
	require.Len(t, f2, 1)
	assert.Equal(t, FrameMessageReceived, f1[0].Type)

	// both devices observe the same stored message
	assert.Equal(t, f1[0].Data["serverMsgId"], f2[0].Data["serverMsgId"])
	assert.NotEmpty(t, f1[0].Data["serverMsgId"])

	// the sender is not a direct target; the ack comes from the handler
	assert.Empty(t, drainFrames(t, sender))
}

func TestRouteChannelIncludesSenderAndSkipsOffline(t *testing.T) {
	reg := NewRegistry()
	alice := newTestClient("a1", "alice")
	bob := newTestClient("b1", "bob")
	reg.Register(alice)
	reg.Register(bob)

	resolver := &fakeResolver{members: map[string][]string{
		"ch-1": {"alice", "bob", "carol"},
	}}
	store := &fakeStore{}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: resolver})

	_, err := rt.Route(context.Background(), &SendRequest{
		SenderID:      "alice",
		RecipientKind: model.KindChannel,
		RecipientID:   "ch-1",
		Content:       "hello room",
	})
	require.NoError(t, err)

	assert.Len(t, drainFrames(t, alice), 1)
	assert.Len(t, drainFrames(t, bob), 1)
	// carol offline everywhere: nothing to do, message still persisted
	assert.Equal(t, 1, store.calls)
}

func TestRouteChannelNotFoundFailsBeforePersist(t *testing.T) {
	reg := NewRegistry()
	store := &fakeStore{}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	_, err := rt.Route(context.Background(), &SendRequest{
		SenderID:      "alice",
		RecipientKind: model.KindChannel,
		RecipientID:   "nope",
		Content:       "x",
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeChannelNotFound, errs.Code(err))
	assert.Zero(t, store.calls)
}

func TestRouteResolverOutageReportsPersistenceFailure(t *testing.T) {
	reg := NewRegistry()
	store := &fakeStore{}
	resolver := &fakeResolver{err: errors.New("mongo down")}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: resolver})

	_, err := rt.Route(context.Background(), &SendRequest{
		SenderID:      "alice",
		RecipientKind: model.KindChannel,
		RecipientID:   "ch-1",
		Content:       "x",
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodePersistenceFailure, errs.Code(err))
	assert.Zero(t, store.calls)
}

func TestRoutePersistenceFailureSkipsFanout(t *testing.T) {
	reg := NewRegistry()
	bob := newTestClient("b1", "bob")
	reg.Register(bob)

	store := &fakeStore{failErr: errors.New("write concern")}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	_, err := rt.Route(context.Background(), directReq("alice", "bob", "hi"))
	require.Error(t, err)
	assert.Equal(t, errs.CodePersistenceFailure, errs.Code(err))
	assert.Empty(t, drainFrames(t, bob))
}

func TestRoutePayloadValidation(t *testing.T) {
	reg := NewRegistry()
	store := &fakeStore{}
	rt := NewRouter("gw-1", 10, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	tests := []struct {
		name string
		req  *SendRequest
		code int
	}{
		{"too large", directReq("alice", "bob", "0123456789A"), errs.CodePayloadTooLarge},
		{"empty", directReq("alice", "bob", ""), errs.CodeMalformedFrame},
		{"bad kind", &SendRequest{SenderID: "alice", RecipientKind: "broadcast", RecipientID: "x", Content: "hi"}, errs.CodeMalformedFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Route(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.Code(err))
		})
	}
	assert.Zero(t, store.calls)
}

func TestRouteSlowConsumerIsPruned(t *testing.T) {
	reg := NewRegistry()
	healthy := newTestClient("b1", "bob")
	stuck := NewClient("b2", nil, 0) // zero-capacity queue: every enqueue overflows
	stuck.UserID = "bob"
	reg.Register(healthy)
	reg.Register(stuck)

	store := &fakeStore{}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	_, err := rt.Route(context.Background(), directReq("alice", "bob", "hi"))
	require.NoError(t, err)

	assert.Len(t, drainFrames(t, healthy), 1)
	// the stuck connection was dropped from the registry
	assert.Len(t, reg.ConnectionsFor("bob"), 1)
	select {
	case <-stuck.Done():
	default:
		t.Fatal("stuck connection not closed")
	}
}

func TestRouteFIFOPerConnection(t *testing.T) {
	reg := NewRegistry()
	bob := NewClient("b1", nil, 256)
	bob.UserID = "bob"
	reg.Register(bob)

	store := &fakeStore{}
	rt := NewRouter("gw-1", 4096, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	const n = 100
	for i := 0; i < n; i++ {
		_, err := rt.Route(context.Background(), directReq("alice", "bob", fmt.Sprintf("m-%03d", i)))
		require.NoError(t, err)
	}

	frames := drainFrames(t, bob)
	require.Len(t, frames, n)
	for i, f := range frames {
		assert.Equal(t, fmt.Sprintf("m-%03d", i), f.Data["content"])
	}
}

func TestRouteFIFOUnderConcurrentSenders(t *testing.T) {
	reg := NewRegistry()
	store := &fakeStore{}
	rt := NewRouter("gw-1", 4096, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}})

	const senders = 8
	const perSender = 50

	targets := make([]*Client, senders)
	for i := range targets {
		c := NewClient(fmt.Sprintf("t%d", i), nil, perSender)
		c.UserID = fmt.Sprintf("target-%d", i)
		targets[i] = c
		reg.Register(c)
	}

	// each sender routes to its own target from its own goroutine, the
	// way real sends arrive from per-connection read loops
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				_, err := rt.Route(context.Background(),
					directReq(fmt.Sprintf("sender-%d", i), fmt.Sprintf("target-%d", i), fmt.Sprintf("%d:%03d", i, j)))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	for i, target := range targets {
		frames := drainFrames(t, target)
		require.Len(t, frames, perSender)
		for j, f := range frames {
			assert.Equal(t, fmt.Sprintf("%d:%03d", i, j), f.Data["content"])
		}
	}
}

func TestRouteEmitsPersistedEvent(t *testing.T) {
	reg := NewRegistry()
	sink := &fakeSink{}
	store := &fakeStore{}
	rt := NewRouter("gw-1", 1024, RouterDeps{Registry: reg, Store: store, Resolver: &fakeResolver{}, Events: sink})

	_, err := rt.Route(context.Background(), directReq("bob", "alice", "hi"))
	require.NoError(t, err)
	require.Len(t, sink.keys, 1)
	assert.Equal(t, model.DMKey("alice", "bob"), sink.keys[0])
}

func TestRouteRelaysToRemoteGateways(t *testing.T) {
	reg := NewRegistry()
	presence := &fakePresence{gateways: map[string][]string{
		"bob": {"gw-1", "gw-2", "gw-3"},
	}}
	relay := &fakeRelay{}
	store := &fakeStore{}
	rt := NewRouter("gw-1", 1024, RouterDeps{
		Registry: reg, Store: store, Resolver: &fakeResolver{},
		Presence: presence, Relay: relay,
	})

	msg, err := rt.Route(context.Background(), directReq("alice", "bob", "hi"))
	require.NoError(t, err)

	// own gateway is skipped; the two remotes each get one envelope
	assert.NotContains(t, relay.sent, "gw-1")
	require.Len(t, relay.sent["gw-2"], 1)
	require.Len(t, relay.sent["gw-3"], 1)

	env, err := DecodeRelayEnvelope(relay.sent["gw-2"][0])
	require.NoError(t, err)
	assert.Equal(t, "bob", env.TargetID)

	var inner struct {
		Type string `json:"type"`
		Data struct {
			ServerMsgID string `json:"serverMsgId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &inner))
	assert.Equal(t, FrameMessageReceived, inner.Type)
	assert.Equal(t, msg.ServerMsgID, inner.Data.ServerMsgID)
}

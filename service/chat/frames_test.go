package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncchat/module/chat/model"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		typ     string
	}{
		{"valid", `{"type":"ping"}`, false, FramePing},
		{"with data", `{"type":"sendMessage","ref":"r1","data":{"content":"hi"}}`, false, FrameSendMessage},
		{"not json", `{{{`, true, ""},
		{"missing type", `{"data":{}}`, true, ""},
		{"empty", ``, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, f.Type)
		})
	}
}

func TestExtractSendPayload(t *testing.T) {
	f, err := ParseFrame([]byte(`{
		"type":"sendMessage","ref":"r42",
		"data":{"recipientKind":"direct","recipientId":"bob","content":"hello","clientMsgId":"cm-1"}
	}`))
	require.NoError(t, err)

	p, err := ExtractSendPayload(f)
	require.NoError(t, err)
	assert.Equal(t, model.KindDirect, p.RecipientKind)
	assert.Equal(t, "bob", p.RecipientID)
	assert.Equal(t, "hello", p.Content)
	assert.Equal(t, "cm-1", p.ClientMsgID)
	assert.Equal(t, "r42", f.Ref)
}

func TestBuildDeliveryFailed(t *testing.T) {
	raw := BuildDeliveryFailed("r7", 1202, "channel not found")
	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, FrameDeliveryFailed, f.Type)
	assert.Equal(t, "r7", f.Ref)
	assert.EqualValues(t, 1202, f.Data["code"])
	assert.Equal(t, "channel not found", f.Data["reason"])
	assert.NotZero(t, f.TS)
}

func TestBuildMessageAckEchoesRef(t *testing.T) {
	m := &model.Message{ServerMsgID: "s1", ConversationID: "dm:a:b", SenderID: "a"}
	f, err := ParseFrame(BuildMessageAck("r9", m))
	require.NoError(t, err)
	assert.Equal(t, FrameMessageAck, f.Type)
	assert.Equal(t, "r9", f.Ref)
	assert.Equal(t, "s1", f.Data["serverMsgId"])
}

func TestRelayEnvelopeRoundTrip(t *testing.T) {
	inner := BuildPresenceChanged("alice", true)
	raw := EncodeRelayEnvelope("alice", inner)

	env, err := DecodeRelayEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", env.TargetID)
	assert.JSONEq(t, string(inner), string(env.Payload))

	_, err = DecodeRelayEnvelope([]byte("not-json"))
	assert.Error(t, err)
}

func TestOutboundFramesAreValidJSON(t *testing.T) {
	for name, raw := range map[string][]byte{
		"authAck":      BuildAuthAck(true, "u1", "c1", 25000, 75000),
		"authRejected": BuildAuthRejected("unauthenticated"),
		"pong":         BuildPong(),
		"presence":     BuildPresenceChanged("u1", false),
	} {
		assert.True(t, json.Valid(raw), "frame %s", name)
	}
}

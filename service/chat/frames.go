package chat

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"syncchat/module/chat/model"
	"syncchat/tools/decode"
)

// Wire protocol: JSON envelopes over the websocket. Inbound `data` stays
// loosely typed until a handler decodes it; outbound frames are built
// from typed payloads.

// Inbound frame types.
const (
	FrameAuthenticate = "authenticate"
	FrameSendMessage  = "sendMessage"
	FrameJoinChannel  = "joinChannel"
	FrameLeaveChannel = "leaveChannel"
	FramePing         = "ping"
	FrameDisconnect   = "disconnect"
)

// Outbound frame types.
const (
	FrameAuthAck         = "authAck"
	FrameMessageAck      = "messageAck"
	FrameMessageReceived = "messageReceived"
	FrameDeliveryFailed  = "deliveryFailed"
	FramePresenceChanged = "presenceChanged"
	FramePong            = "pong"
)

type Frame struct {
	Type string         `json:"type"`
	Ref  string         `json:"ref,omitempty"` // client request ref, echoed in acks
	TS   int64          `json:"ts,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errors.Wrap(err, "unmarshal frame")
	}
	if f.Type == "" {
		return nil, errors.New("frame missing type")
	}
	return f, nil
}

// ---- inbound payloads ----

type AuthPayload struct {
	Token string `json:"token"`
}

type SendPayload struct {
	RecipientKind string `json:"recipientKind"`
	RecipientID   string `json:"recipientId"`
	Content       string `json:"content"`
	AttachmentURL string `json:"attachmentUrl"`
	ClientMsgID   string `json:"clientMsgId"`
}

type ChannelPayload struct {
	ChannelID string `json:"channelId"`
}

func ExtractAuthPayload(f *Frame) (*AuthPayload, error) {
	return decode.Struct[AuthPayload](f.Data)
}

func ExtractSendPayload(f *Frame) (*SendPayload, error) {
	return decode.Struct[SendPayload](f.Data)
}

func ExtractChannelPayload(f *Frame) (*ChannelPayload, error) {
	return decode.Struct[ChannelPayload](f.Data)
}

// ---- outbound builders ----

type outFrame struct {
	Type string `json:"type"`
	Ref  string `json:"ref,omitempty"`
	TS   int64  `json:"ts"`
	Data any    `json:"data,omitempty"`
}

func marshalFrame(typ, ref string, data any) []byte {
	b, _ := json.Marshal(outFrame{Type: typ, Ref: ref, TS: time.Now().UnixMilli(), Data: data})
	return b
}

func BuildAuthAck(ok bool, userID, connID string, pingIntervalMS, pongTimeoutMS int64) []byte {
	return marshalFrame(FrameAuthAck, "", map[string]any{
		"ok":      ok,
		"userId":  userID,
		"connId":  connID,
		"heartbeat": map[string]any{
			"pingIntervalMs": pingIntervalMS,
			"pongTimeoutMs":  pongTimeoutMS,
		},
	})
}

func BuildAuthRejected(reason string) []byte {
	return marshalFrame(FrameAuthAck, "", map[string]any{"ok": false, "reason": reason})
}

func BuildMessageReceived(m *model.Message) []byte {
	return marshalFrame(FrameMessageReceived, "", m)
}

func BuildMessageAck(ref string, m *model.Message) []byte {
	return marshalFrame(FrameMessageAck, ref, m)
}

func BuildDeliveryFailed(ref string, code int, reason string) []byte {
	return marshalFrame(FrameDeliveryFailed, ref, map[string]any{
		"code":   code,
		"reason": reason,
	})
}

func BuildPresenceChanged(userID string, online bool) []byte {
	return marshalFrame(FramePresenceChanged, "", map[string]any{
		"userId": userID,
		"online": online,
	})
}

func BuildPong() []byte {
	return marshalFrame(FramePong, "", nil)
}

// ---- relay envelope (gateway-to-gateway) ----

// RelayEnvelope wraps an already-encoded messageReceived frame with its
// target identity for cross-node delivery.
type RelayEnvelope struct {
	TargetID string          `json:"target"`
	Payload  json.RawMessage `json:"payload"`
}

func EncodeRelayEnvelope(targetID string, payload []byte) []byte {
	b, _ := json.Marshal(RelayEnvelope{TargetID: targetID, Payload: payload})
	return b
}

func DecodeRelayEnvelope(raw []byte) (*RelayEnvelope, error) {
	env := &RelayEnvelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, errors.Wrap(err, "unmarshal relay envelope")
	}
	return env, nil
}

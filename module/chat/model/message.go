package model

import "strings"

// RecipientKind values on the wire and in storage.
const (
	KindDirect  = "direct"
	KindChannel = "channel"
)

const (
	MessageCollection = "messages"
	ChannelCollection = "channels"
)

// Message is immutable once persisted. ServerMsgID and SendTime are
// assigned at the moment of successful persistence and establish the
// total order for the conversation. ClientMsgID is the client-supplied
// idempotency token; a retry after a reported persistence failure maps
// onto the same stored document.
type Message struct {
	ServerMsgID    string `bson:"server_msg_id" json:"serverMsgId"`
	ClientMsgID    string `bson:"client_msg_id,omitempty" json:"clientMsgId,omitempty"`
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	SenderID       string `bson:"sender_id" json:"senderId"`
	RecipientKind  string `bson:"recipient_kind" json:"recipientKind"`
	RecipientID    string `bson:"recipient_id" json:"recipientId"`
	Content        string `bson:"content,omitempty" json:"content,omitempty"`
	AttachmentURL  string `bson:"attachment_url,omitempty" json:"attachmentUrl,omitempty"`
	SendTime       int64  `bson:"send_time" json:"sendTime"` // unix ms
}

// DMKey yields the conversation id for a direct pair, identical from
// either side.
func DMKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

// ChannelKey yields the conversation id for a channel.
func ChannelKey(channelID string) string {
	return "ch:" + channelID
}

// ConversationID derives the storage key from addressing fields.
func ConversationID(senderID, kind, recipientID string) string {
	if kind == KindChannel {
		return ChannelKey(recipientID)
	}
	return DMKey(senderID, recipientID)
}

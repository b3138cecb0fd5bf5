package model

import "time"

// Channel membership lives in the external store and is resolved on
// demand; this layer never caches it past a single route call.
type Channel struct {
	ChannelID string    `bson:"channel_id" json:"channelId"`
	Name      string    `bson:"name" json:"name"`
	AdminID   string    `bson:"admin_id" json:"adminId"`
	MemberIDs []string  `bson:"member_ids" json:"memberIds"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

package channel

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"syncchat/module/chat/model"
	"syncchat/tools/errs"
)

// Resolver answers channel membership from the store, on demand. No
// caching: membership can change out-of-band between two sends.
type Resolver struct {
	coll *mongo.Collection
}

func NewResolver(db *mongo.Database) *Resolver {
	return &Resolver{coll: db.Collection(model.ChannelCollection)}
}

// MembersOf returns the member identities, admin included.
func (r *Resolver) MembersOf(ctx context.Context, channelID string) ([]string, error) {
	var ch model.Channel
	err := r.coll.FindOne(ctx, bson.M{"channel_id": channelID}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrChannelNotFound.WrapMsg("channel %s", channelID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find channel")
	}

	seen := make(map[string]struct{}, len(ch.MemberIDs)+1)
	out := make([]string, 0, len(ch.MemberIDs)+1)
	for _, id := range append(ch.MemberIDs, ch.AdminID) {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

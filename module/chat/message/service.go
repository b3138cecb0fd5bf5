package message

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"syncchat/module/chat/model"
)

const defaultHistoryLimit = 100

// Service answers history queries. Read-only; messages are never
// mutated or deleted by this layer.
type Service struct {
	coll *mongo.Collection
}

func NewService(db *mongo.Database) *Service {
	return &Service{coll: db.Collection(model.MessageCollection)}
}

// History returns the direct conversation between two users in send
// order. before=0 means newest page.
func (s *Service) History(ctx context.Context, userA, userB string, limit int64, before int64) ([]model.Message, error) {
	return s.page(ctx, model.DMKey(userA, userB), limit, before)
}

// ChannelHistory returns a channel's messages in send order.
func (s *Service) ChannelHistory(ctx context.Context, channelID string, limit int64, before int64) ([]model.Message, error) {
	return s.page(ctx, model.ChannelKey(channelID), limit, before)
}

func (s *Service) page(ctx context.Context, conversationID string, limit int64, before int64) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	filter := bson.M{"conversation_id": conversationID}
	if before > 0 {
		filter["send_time"] = bson.M{"$lt": before}
	}

	// newest page first, then flip to chronological for the client
	cur, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "send_time", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer cur.Close(ctx)

	var out []model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// DMPartners lists the identities this user has a direct conversation
// with, most recent first. Backs the contacts DM list.
func (s *Service) DMPartners(ctx context.Context, userID string) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"recipient_kind": model.KindDirect,
			"$or": bson.A{
				bson.M{"sender_id": userID},
				bson.M{"recipient_id": userID},
			},
		}}},
		{{Key: "$sort", Value: bson.M{"send_time": -1}}},
		{{Key: "$group", Value: bson.M{
			"_id": "$conversation_id",
			"sender_id":    bson.M{"$first": "$sender_id"},
			"recipient_id": bson.M{"$first": "$recipient_id"},
			"last_time":    bson.M{"$first": "$send_time"},
		}}},
		{{Key: "$sort", Value: bson.M{"last_time": -1}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate dm partners")
	}
	defer cur.Close(ctx)

	var rows []struct {
		SenderID    string `bson:"sender_id"`
		RecipientID string `bson:"recipient_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decode dm partners")
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		partner := r.SenderID
		if partner == userID {
			partner = r.RecipientID
		}
		out = append(out, partner)
	}
	return out, nil
}

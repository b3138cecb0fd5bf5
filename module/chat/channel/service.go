package channel

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"syncchat/module/chat/model"
	"syncchat/tools/errs"
	"syncchat/tools/ids"
)

type Service struct {
	coll *mongo.Collection
}

func NewService(db *mongo.Database) *Service {
	return &Service{coll: db.Collection(model.ChannelCollection)}
}

func (s *Service) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "member_ids", Value: 1}}},
	})
	return errors.Wrap(err, "channel indexes")
}

func (s *Service) Create(ctx context.Context, adminID, name string, memberIDs []string) (*model.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.ErrBadRequest.WithDetail("name required")
	}
	ch := &model.Channel{
		ChannelID: ids.GenerateString(),
		Name:      name,
		AdminID:   adminID,
		MemberIDs: dedupe(memberIDs, adminID),
		CreatedAt: time.Now(),
	}
	if _, err := s.coll.InsertOne(ctx, ch); err != nil {
		return nil, errors.Wrap(err, "insert channel")
	}
	return ch, nil
}

func (s *Service) Get(ctx context.Context, channelID string) (*model.Channel, error) {
	var ch model.Channel
	err := s.coll.FindOne(ctx, bson.M{"channel_id": channelID}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrChannelNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find channel")
	}
	return &ch, nil
}

// ListForUser returns channels the user belongs to, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]model.Channel, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"$or": bson.A{
			bson.M{"member_ids": userID},
			bson.M{"admin_id": userID},
		}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list channels")
	}
	defer cur.Close(ctx)
	var out []model.Channel
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode channels")
	}
	return out, nil
}

// AddMembers appends members without duplicating existing ones.
func (s *Service) AddMembers(ctx context.Context, channelID string, memberIDs []string) (*model.Channel, error) {
	res := s.coll.FindOneAndUpdate(ctx,
		bson.M{"channel_id": channelID},
		bson.M{"$addToSet": bson.M{"member_ids": bson.M{"$each": memberIDs}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var ch model.Channel
	if err := res.Decode(&ch); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrChannelNotFound
		}
		return nil, errors.Wrap(err, "add members")
	}
	return &ch, nil
}

// RemoveMember drops a member. The admin cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, channelID, userID string) (*model.Channel, error) {
	var existing model.Channel
	err := s.coll.FindOne(ctx, bson.M{"channel_id": channelID}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrChannelNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find channel")
	}
	if existing.AdminID == userID {
		return nil, errs.ErrBadRequest.WithDetail("admin cannot leave own channel")
	}
	res := s.coll.FindOneAndUpdate(ctx,
		bson.M{"channel_id": channelID},
		bson.M{"$pull": bson.M{"member_ids": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var ch model.Channel
	if err := res.Decode(&ch); err != nil {
		return nil, errors.Wrap(err, "remove member")
	}
	return &ch, nil
}

func dedupe(ids []string, admin string) []string {
	seen := map[string]struct{}{admin: {}}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

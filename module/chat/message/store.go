package message

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"syncchat/module/chat/model"
	"syncchat/tools/ids"
)

// Store is the persistence gateway backed by MongoDB. Server message id
// and timestamp are assigned here, at the moment of durable storage.
type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(model.MessageCollection)}
}

// EnsureIndexes creates the dedup and history indexes. The unique
// (conversation_id, client_msg_id) index is what makes client retries
// idempotent; it is partial so messages without a token don't collide.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "client_msg_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"client_msg_id": bson.M{"$exists": true, "$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "send_time", Value: 1}},
		},
	})
	return errors.Wrap(err, "message indexes")
}

// Persist stores the draft, assigning server id and timestamp. A
// duplicate client_msg_id within the conversation returns the already
// stored message instead of double-storing, so a client retry after a
// reported failure converges on one document.
func (s *Store) Persist(ctx context.Context, draft *model.Message) (*model.Message, error) {
	msg := *draft
	msg.ServerMsgID = ids.GenerateString()
	msg.SendTime = time.Now().UnixMilli()

	_, err := s.coll.InsertOne(ctx, &msg)
	if err == nil {
		return &msg, nil
	}
	if mongo.IsDuplicateKeyError(err) && draft.ClientMsgID != "" {
		var existing model.Message
		ferr := s.coll.FindOne(ctx, bson.M{
			"conversation_id": draft.ConversationID,
			"client_msg_id":   draft.ClientMsgID,
		}).Decode(&existing)
		if ferr == nil {
			return &existing, nil
		}
		return nil, errors.Wrap(ferr, "lookup deduplicated message")
	}
	return nil, errors.Wrap(err, "insert message")
}

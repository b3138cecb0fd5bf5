package user

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"syncchat/module/user/model"
	"syncchat/tools/errs"
	"syncchat/tools/ids"
)

const minPasswordLen = 6

type Service struct {
	coll *mongo.Collection
}

func NewService(db *mongo.Database) *Service {
	return &Service{coll: db.Collection(model.UserCollection)}
}

func (s *Service) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return errors.Wrap(err, "user indexes")
}

func (s *Service) Signup(ctx context.Context, email, fullName, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || fullName == "" {
		return nil, errs.ErrBadRequest.WithDetail("email and fullName required")
	}
	if len(password) < minPasswordLen {
		return nil, errs.ErrBadRequest.WithDetail("password too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u := &model.User{
		UserID:       ids.GenerateString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrUserExists
		}
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// Login verifies credentials. Wrong email and wrong password are the
// same error to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrBadCredential
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errs.ErrBadCredential
	}
	return &u, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*model.User, error) {
	if avatarURL == "" {
		return nil, errs.ErrBadRequest.WithDetail("avatarUrl required")
	}
	res := s.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"avatar_url": avatarURL}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var u model.User
	if err := res.Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "update avatar")
	}
	return &u, nil
}

// List returns every registered user except the caller. Backs the
// contacts page.
func (s *Service) List(ctx context.Context, excludeID string) ([]model.User, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"user_id": bson.M{"$ne": excludeID}},
		options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer cur.Close(ctx)
	var out []model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return out, nil
}

// Search finds users whose name or email contains the term,
// case-insensitive, caller excluded.
func (s *Service) Search(ctx context.Context, term, excludeID string) ([]model.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errs.ErrBadRequest.WithDetail("search term required")
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	cur, err := s.coll.Find(ctx, bson.M{
		"user_id": bson.M{"$ne": excludeID},
		"$or": bson.A{
			bson.M{"full_name": pattern},
			bson.M{"email": pattern},
		},
	}, options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}}).SetLimit(50))
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	defer cur.Close(ctx)
	var out []model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return out, nil
}

// GetMany resolves a batch of ids, preserving input order and skipping
// unknown ids.
func (s *Service) GetMany(ctx context.Context, userIDs []string) ([]model.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cur.Close(ctx)
	var found []model.User
	if err := cur.All(ctx, &found); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	byID := make(map[string]model.User, len(found))
	for _, u := range found {
		byID[u.UserID] = u
	}
	out := make([]model.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

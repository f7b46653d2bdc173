package account

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// UsersCollection holds one document per wallet address.
const UsersCollection = "users"

// MongoStore keeps users in MongoDB.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore wraps client. Call Migrate once to create the address index.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, col: client.Database(database).Collection(UsersCollection)}
}

// Migrate creates the unique address index.
func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("account/mongo: migrate indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, address string) (*model.User, error) {
	var u model.User
	err := s.col.FindOne(ctx, bson.M{"address": address}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("account/mongo: get user: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) Insert(ctx context.Context, u *model.User) error {
	_, err := s.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrExists, u.Address)
	}
	if err != nil {
		return fmt.Errorf("account/mongo: insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, address, nickname, name string) error {
	set := bson.M{}
	if nickname != "" {
		set["nickname"] = nickname
	}
	if name != "" {
		set["name"] = name
	}
	if len(set) == 0 {
		_, err := s.Get(ctx, address)
		return err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"address": address}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("account/mongo: update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

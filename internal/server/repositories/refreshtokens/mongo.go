package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores refresh tokens with the token string as _id.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes adds a user index and a TTL index so the server also drops
// expired tokens on its own.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, rt *models.RefreshToken) error {
	if _, err := r.coll.InsertOne(ctx, rt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": token}).Decode(rt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *MongoRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID, "expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount, nil
}

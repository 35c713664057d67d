package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes creates the (owner_id, created_at) index used by ListByOwner.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("owner_created"),
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*models.Task, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Create(ctx context.Context, task *models.Task) error {
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	t := &models.Task{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *MongoRepository) Update(ctx context.Context, task *models.Task) error {
	update := bson.M{"$set": bson.M{
		"text":       task.Text,
		"completed":  task.Completed,
		"category":   task.Category,
		"due_date":   task.DueDate,
		"updated_at": task.UpdatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": task.ID}, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteByOwner(ctx context.Context, ownerID string, completedOnly bool) (int64, error) {
	filter := bson.M{"owner_id": ownerID}
	if completedOnly {
		filter["completed"] = true
	}

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount, nil
}

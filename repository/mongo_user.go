package repository

import (
	"context"
	"errors"
	"fmt"

	"samadhan-setu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UserCollection     = "users"
	FeedbackCollection = "feedback"
)

type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: db.Collection(UserCollection)}
}

func (r *MongoUsers) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, models.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUsers) FindWorkers(ctx context.Context) ([]models.WorkerView, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"_id": 1, "name": 1, "email": 1})

	cursor, err := r.coll.Find(ctx, bson.M{"role": models.RoleWorker}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find workers: %w", err)
	}
	defer cursor.Close(ctx)

	workers := []models.WorkerView{}
	if err := cursor.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}
	return workers, nil
}

func (r *MongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

type MongoFeedback struct {
	coll *mongo.Collection
}

func NewMongoFeedback(db *mongo.Database) *MongoFeedback {
	return &MongoFeedback{coll: db.Collection(FeedbackCollection)}
}

func (r *MongoFeedback) Insert(ctx context.Context, fb *models.Feedback) error {
	if fb.ID.IsZero() {
		fb.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, fb); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
